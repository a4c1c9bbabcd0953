// shared/service/boardclient.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/shared/api"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// BoardServiceClient is a client for the board service REST API.
type BoardServiceClient struct {
	apiClient *api.Client
}

// NewBoardClient creates a client for the board service at baseURL.
// token may be empty for the public endpoints and for Login.
func NewBoardClient(baseURL, token string) *BoardServiceClient {
	return &BoardServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()).WithToken(token),
	}
}

// --- Request/Response DTOs ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// NotificationRequest is the body of POST /api/admin/notifications.
// Duration is in milliseconds; nil uses the server default.
type NotificationRequest struct {
	Type     models.NotificationType `json:"type"`
	Title    string                  `json:"title,omitempty"`
	Message  string                  `json:"message,omitempty"`
	MediaURL string                  `json:"mediaUrl,omitempty"`
	Duration *int64                  `json:"duration,omitempty"`
}

// --- Client Methods ---

func (c *BoardServiceClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp := &LoginResponse{}
	if err := c.apiClient.Post(ctx, "/api/auth/login", LoginRequest{Email: email, Password: password}, resp); err != nil {
		return nil, fmt.Errorf("login as %s failed: %w", email, err)
	}
	return resp, nil
}

func (c *BoardServiceClient) Me(ctx context.Context) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.apiClient.Get(ctx, "/api/auth/me", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return resp.User, nil
}

func (c *BoardServiceClient) Leaderboard(ctx context.Context) (*leaderboard.Board, error) {
	board := &leaderboard.Board{}
	if err := c.apiClient.Get(ctx, "/api/stats/leaderboard", board); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return board, nil
}

func (c *BoardServiceClient) ListAgents(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent
	if err := c.apiClient.Get(ctx, "/api/tl/agents", &agents); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// ApplyDelta sends a one-shot counter change and returns the updated agent.
// A rejected request because of rate limiting wraps api.ErrTooManyReqs.
func (c *BoardServiceClient) ApplyDelta(ctx context.Context, agentID string, delta models.CounterDelta) (*models.Agent, error) {
	agent := &models.Agent{}
	path := fmt.Sprintf("/api/tl/agents/%s/increment", url.PathEscape(agentID))
	if err := c.apiClient.Patch(ctx, path, delta, agent); err != nil {
		return nil, fmt.Errorf("failed to apply delta to agent %s: %w", agentID, err)
	}
	return agent, nil
}

func (c *BoardServiceClient) PushNotification(ctx context.Context, req NotificationRequest) (*models.Notification, error) {
	n := &models.Notification{}
	if err := c.apiClient.Post(ctx, "/api/admin/notifications", req, n); err != nil {
		return nil, fmt.Errorf("failed to push notification: %w", err)
	}
	return n, nil
}

func (c *BoardServiceClient) ClearNotifications(ctx context.Context) error {
	if err := c.apiClient.Patch(ctx, "/api/admin/notifications/clear", nil, nil); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

// ActiveNotification returns nil, nil when nothing is showing.
func (c *BoardServiceClient) ActiveNotification(ctx context.Context) (*models.Notification, error) {
	n := &models.Notification{}
	if err := c.apiClient.Get(ctx, "/api/notifications/active", n); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active notification: %w", err)
	}
	return n, nil
}
