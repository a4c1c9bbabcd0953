// board/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/ratelimit"
	"github.com/Ftotnem/LIVEBOARD/board/service"
	"github.com/Ftotnem/LIVEBOARD/shared/api"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

const requestTimeout = 5 * time.Second

// BoardAPIHandlers holds references to the services behind the REST and
// WebSocket endpoints.
type BoardAPIHandlers struct {
	Auth          *service.AuthService
	Counters      *service.CounterService
	Agents        *service.AgentService
	Notifications *service.NotificationService
	Board         *service.LeaderboardService
	Limiter       ratelimit.Limiter
	Hub           *hub.Hub

	// Ready, when set, is checked by the health endpoint (e.g. a store ping).
	Ready func(ctx context.Context) error

	WSSendBuffer   int
	WSPingInterval time.Duration
}

// --- Request/Response DTOs ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	User *models.User `json:"user"`
}

type DeleteAgentResponse struct {
	Message string `json:"message"`
}

// --- Helpers ---

// decodeBody reads a JSON body into dst and writes 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// caller resolves the bearer token and writes 401 on failure.
func (h *BoardAPIHandlers) caller(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.Auth.Authenticate(ctx, api.BearerToken(r))
	if err != nil {
		writeServiceError(w, err, "authenticate")
		return nil, false
	}
	return user, true
}

// writeServiceError maps service sentinels to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		api.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, service.ErrForbidden):
		api.WriteForbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		api.WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrValidation):
		api.WriteBadRequest(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		api.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		api.WriteTooManyRequests(w, "Too many requests, please slow down")
	default:
		log.Printf("ERROR: %s failed: %v", op, err)
		api.WriteInternalServerError(w, "Internal server error")
	}
}

// --- Auth ---

// LoginHandler POST /api/auth/login
func (h *BoardAPIHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			api.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		writeServiceError(w, err, "login")
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

// MeHandler GET /api/auth/me
func (h *BoardAPIHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, UserResponse{User: user})
}

// RegisterTLHandler POST /api/auth/register/tl
func (h *BoardAPIHandlers) RegisterTLHandler(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterTLRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.Auth.RegisterTL(ctx, req)
	if err != nil {
		writeServiceError(w, err, "register team leader")
		return
	}
	api.WriteJSON(w, http.StatusCreated, result)
}

// --- Public reads ---

// LeaderboardHandler GET /api/stats/leaderboard
func (h *BoardAPIHandlers) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	board, err := h.Board.Board(ctx)
	if err != nil {
		writeServiceError(w, err, "compute leaderboard")
		return
	}
	api.WriteJSON(w, http.StatusOK, board)
}

// ActiveNotificationHandler GET /api/notifications/active
func (h *BoardAPIHandlers) ActiveNotificationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := h.Notifications.Active(ctx)
	if err != nil {
		writeServiceError(w, err, "get active notification")
		return
	}
	api.WriteJSON(w, http.StatusOK, n)
}

// HealthHandler GET /healthz
func (h *BoardAPIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ready(ctx); err != nil {
			log.Printf("WARN: Health check failed: %v", err)
			api.WriteError(w, http.StatusServiceUnavailable, "Storage unavailable")
			return
		}
	}
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"viewers": h.Hub.Count(),
	})
}

// --- Agents ---

// ListAgentsHandler GET /api/tl/agents
func (h *BoardAPIHandlers) ListAgentsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	agents, err := h.Agents.ListAgents(ctx, user)
	if err != nil {
		writeServiceError(w, err, "list agents")
		return
	}
	if agents == nil {
		agents = []models.Agent{}
	}
	api.WriteJSON(w, http.StatusOK, agents)
}

// CreateAgentHandler POST /api/tl/agents
func (h *BoardAPIHandlers) CreateAgentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req service.CreateAgentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	agent, err := h.Agents.CreateAgent(ctx, user, req)
	if err != nil {
		writeServiceError(w, err, "create agent")
		return
	}
	api.WriteJSON(w, http.StatusCreated, agent)
}

// UpdateAgentHandler PATCH /api/tl/agents/{id}
func (h *BoardAPIHandlers) UpdateAgentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var patch models.AgentPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	agent, err := h.Agents.UpdateAgent(ctx, user, mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, err, "update agent")
		return
	}
	api.WriteJSON(w, http.StatusOK, agent)
}

// DeleteAgentHandler DELETE /api/tl/agents/{id}
func (h *BoardAPIHandlers) DeleteAgentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := mux.Vars(r)["id"]
	if err := h.Agents.DeleteAgent(ctx, user, id); err != nil {
		writeServiceError(w, err, "delete agent")
		return
	}
	api.WriteJSON(w, http.StatusOK, DeleteAgentResponse{Message: "Agent " + id + " deleted"})
}

// IncrementHandler PATCH /api/tl/agents/{id}/increment
// The body is the delta itself: {"activations": 1}.
func (h *BoardAPIHandlers) IncrementHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.allow(ctx, user); err != nil {
		writeServiceError(w, err, "rate limit")
		return
	}

	var delta models.CounterDelta
	if !decodeBody(w, r, &delta) {
		return
	}

	agent, err := h.Counters.ApplyDelta(ctx, user, mux.Vars(r)["id"], delta)
	if err != nil {
		writeServiceError(w, err, "apply counter delta")
		return
	}
	api.WriteJSON(w, http.StatusOK, agent)
}

// allow charges one request to the caller. A limiter backend failure lets
// the request through.
func (h *BoardAPIHandlers) allow(ctx context.Context, user *models.User) error {
	if h.Limiter == nil {
		return nil
	}
	ok, err := h.Limiter.Allow(ctx, user.ID)
	if err != nil {
		log.Printf("WARN: Rate limiter unavailable for %s, allowing request: %v", user.ID, err)
		return nil
	}
	if !ok {
		return service.ErrRateLimited
	}
	return nil
}

// --- Notifications ---

// PushNotificationHandler POST /api/admin/notifications
func (h *BoardAPIHandlers) PushNotificationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req service.PushRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := h.Notifications.Push(ctx, user, req)
	if err != nil {
		writeServiceError(w, err, "push notification")
		return
	}
	api.WriteJSON(w, http.StatusCreated, n)
}

// ClearNotificationsHandler PATCH /api/admin/notifications/clear
func (h *BoardAPIHandlers) ClearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Notifications.ClearActive(ctx, user); err != nil {
		writeServiceError(w, err, "clear notifications")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notifications cleared"})
}

// RegisterRoutes registers all endpoints of the board service.
// OPTIONS is accepted on mutating routes so CORS preflights reach the middleware.
func (h *BoardAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.HealthHandler).Methods("GET")
	router.HandleFunc("/ws", h.WebSocketHandler).Methods("GET")

	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/me", h.MeHandler).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/auth/register/tl", h.RegisterTLHandler).Methods("POST", "OPTIONS")

	router.HandleFunc("/api/stats/leaderboard", h.LeaderboardHandler).Methods("GET")
	router.HandleFunc("/api/notifications/active", h.ActiveNotificationHandler).Methods("GET")

	router.HandleFunc("/api/tl/agents", h.ListAgentsHandler).Methods("GET")
	router.HandleFunc("/api/tl/agents", h.CreateAgentHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/tl/agents/{id}/increment", h.IncrementHandler).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/api/tl/agents/{id}", h.UpdateAgentHandler).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/api/tl/agents/{id}", h.DeleteAgentHandler).Methods("DELETE")

	router.HandleFunc("/api/admin/notifications", h.PushNotificationHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/admin/notifications/clear", h.ClearNotificationsHandler).Methods("PATCH", "OPTIONS")
}
