package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func rolesApp(roles []string, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_roles", roles)
		return c.Next()
	})
	app.Use(ActingRole())
	for _, guard := range guards {
		app.Use(guard)
	}
	app.Get("/ping", func(c *fiber.Ctx) error {
		role, _ := c.Locals("acting_role").(string)
		return c.SendString(role)
	})
	return app
}

func TestActingRoleDefaultsToSoleRole(t *testing.T) {
	app := rolesApp([]string{"student"})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestActingRoleHeaderSelectsFromSet(t *testing.T) {
	app := rolesApp([]string{"student", "teacher"}, RequireRole("teacher"))

	request := httptest.NewRequest("GET", "/ping", nil)
	request.Header.Set(ActingRoleHeader, "teacher")
	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestActingRoleRejectsRoleNotHeld(t *testing.T) {
	app := rolesApp([]string{"student"})

	request := httptest.NewRequest("GET", "/ping", nil)
	request.Header.Set(ActingRoleHeader, "teacher")
	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestActingRoleRejectsEmptyRoleSet(t *testing.T) {
	app := rolesApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleBlocksOtherActingRole(t *testing.T) {
	app := rolesApp([]string{"student", "teacher"}, RequireRole("teacher"))

	request := httptest.NewRequest("GET", "/ping", nil)
	request.Header.Set(ActingRoleHeader, "student")
	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
