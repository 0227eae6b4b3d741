package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aulahub/exam-go-api/internal/utils"
)

// ActingRoleHeader selects which of the principal's roles applies to the request.
const ActingRoleHeader = "X-Acting-Role"

// ActingRole resolves the role the principal acts under for this request. The
// header value must belong to the token's role set; when the header is absent
// the sole role is used, or the first role of a multi-role set.
func ActingRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles := rolesFromContext(c)
		if len(roles) == 0 {
			return utils.SendError(c, fiber.StatusForbidden, "no roles assigned")
		}

		acting := strings.ToLower(strings.TrimSpace(c.Get(ActingRoleHeader)))
		if acting == "" {
			acting = roles[0]
		}

		found := false
		for _, role := range roles {
			if role == acting {
				found = true
				break
			}
		}
		if !found {
			return utils.SendError(c, fiber.StatusForbidden, "acting role not held by principal")
		}

		c.Locals("acting_role", acting)
		return c.Next()
	}
}

// RequireRole ensures the request's acting role is one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("acting_role").(string)
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func rolesFromContext(c *fiber.Ctx) []string {
	if v := c.Locals("user_roles"); v != nil {
		if roles, ok := v.([]string); ok {
			return roles
		}
	}
	return nil
}
