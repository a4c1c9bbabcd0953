// board/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Ftotnem/LIVEBOARD/board/auth"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// TokenIssuer issues and verifies bearer tokens. *auth.TokenIssuer implements it.
type TokenIssuer interface {
	auth.Verifier
	Issue(userID string) (string, error)
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
	Team  *models.Team `json:"team,omitempty"`
}

// RegisterTLRequest is the team-leader sign-up form.
type RegisterTLRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	TeamName string `json:"teamName"`
}

// AuthService resolves callers and manages logins.
type AuthService struct {
	users  store.UserStore
	teams  store.TeamStore
	tokens TokenIssuer
	clock  clock.Clock
	board  *LeaderboardService
}

func NewAuthService(users store.UserStore, teams store.TeamStore, tokens TokenIssuer, clk clock.Clock, board *LeaderboardService) *AuthService {
	return &AuthService{users: users, teams: teams, tokens: tokens, clock: clk, board: board}
}

// Authenticate maps a bearer token to its user. Every failure, including a
// token for a deleted user, is ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, validationf("email and password are required")
	}
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: User %s (%s) logged in", user.ID, user.Role)
	return &AuthResult{Token: token, User: user}, nil
}

// RegisterTL creates a team leader together with the team they own. This is
// the only place teams are created.
func (s *AuthService) RegisterTL(ctx context.Context, req RegisterTLRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case !minLen(req.Name, 2):
		return nil, validationf("name must be at least 2 characters")
	case !validEmail(req.Email):
		return nil, validationf("invalid email address")
	case len(req.Password) < 6:
		return nil, validationf("password must be at least 6 characters")
	case !minLen(req.TeamName, 2):
		return nil, validationf("team name must be at least 2 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleTL,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, req.Email)
		}
		return nil, err
	}

	now := s.clock.Now()
	team := &models.Team{ID: uuid.NewString(), Name: strings.TrimSpace(req.TeamName), TLID: user.ID, CreatedAt: &now}
	if err := s.teams.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team for %s: %w", user.Email, err)
	}
	if err := s.users.SetUserTeam(ctx, user.ID, team.ID); err != nil {
		return nil, fmt.Errorf("failed to link team %s to %s: %w", team.ID, user.ID, err)
	}
	user.TeamID = team.ID

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Registered team leader %s with team %q", user.ID, team.Name)

	if s.board != nil {
		if _, err := s.board.Publish(ctx); err != nil {
			log.Printf("ERROR: Failed to publish leaderboard after registering %s: %v", user.ID, err)
		}
	}
	return &AuthResult{Token: token, User: user, Team: team}, nil
}

// ownTeam returns the team a caller may act on: "" for admins (any team), the
// owned team for team leaders.
func ownTeam(ctx context.Context, teams store.TeamStore, caller *models.User) (string, error) {
	switch caller.Role {
	case models.RoleAdmin:
		return "", nil
	case models.RoleTL:
		team, err := teams.GetTeamByOwner(ctx, caller.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", fmt.Errorf("%w: team leader %s owns no team", ErrForbidden, caller.ID)
			}
			return "", err
		}
		return team.ID, nil
	default:
		return "", fmt.Errorf("%w: role %q may not modify agents", ErrForbidden, caller.Role)
	}
}
