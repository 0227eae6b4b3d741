// Package rooms implements the classroom membership check against the external
// rooms service. The attempt engine only consumes the boolean answer; room and
// roster management live elsewhere.
package rooms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client queries the rooms service over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a rooms client. A zero timeout falls back to 3 seconds.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "rooms_client").Logger(),
	}
}

// IsAuthorized reports whether the user holds the given role in the room. A
// 404 from the rooms service means not a member; any other non-200 status is
// an error so callers fail closed.
func (c *Client) IsAuthorized(ctx context.Context, roomID, userID uint, role string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/rooms/%d/members/%d?role=%s", c.baseURL, roomID, userID, url.QueryEscape(role))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build membership request: %w", err)
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return false, fmt.Errorf("membership check failed: %w", err)
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound, http.StatusForbidden:
		return false, nil
	default:
		c.logger.Warn().
			Int("status", response.StatusCode).
			Uint("room_id", roomID).
			Uint("user_id", userID).
			Msg("unexpected rooms service response")
		return false, fmt.Errorf("rooms service returned status %d", response.StatusCode)
	}
}
