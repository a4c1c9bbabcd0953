// board/service/notification_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// MaxNotificationDuration bounds how long one push may hold the board.
const MaxNotificationDuration = 24 * time.Hour

// PushRequest is an admin takeover message. Duration is in milliseconds;
// nil or 0 means the configured default.
type PushRequest struct {
	Type     models.NotificationType `json:"type"`
	Title    string                  `json:"title,omitempty"`
	Message  string                  `json:"message,omitempty"`
	MediaURL string                  `json:"mediaUrl,omitempty"`
	Duration *int64                  `json:"duration,omitempty"`
}

// activeNotification is the scheduled expiry of the one active notification.
type activeNotification struct {
	id        string
	expiresAt time.Time
	timer     *clock.Timer
}

// NotificationService keeps at most one notification active and expires it
// after its duration or on an explicit clear, whichever comes first.
type NotificationService struct {
	store           store.NotificationStore
	hub             Broadcaster
	clock           clock.Clock
	defaultDuration time.Duration
	expireTimeout   time.Duration

	mu     sync.Mutex
	active *activeNotification // nil when nothing is scheduled
}

func NewNotificationService(st store.NotificationStore, b Broadcaster, clk clock.Clock, defaultDuration time.Duration) *NotificationService {
	return &NotificationService{
		store:           st,
		hub:             b,
		clock:           clk,
		defaultDuration: defaultDuration,
		expireTimeout:   5 * time.Second,
	}
}

func requireAdmin(caller *models.User) error {
	if caller == nil || caller.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

func (s *NotificationService) validate(req *PushRequest) error {
	if !req.Type.Valid() {
		return validationf("type must be one of text, image, video, audio")
	}
	if req.Duration == nil || *req.Duration == 0 {
		ms := s.defaultDuration.Milliseconds()
		req.Duration = &ms
	}
	if *req.Duration < 0 {
		return validationf("duration must not be negative")
	}
	if *req.Duration > MaxNotificationDuration.Milliseconds() {
		return validationf("duration must not exceed %dms", MaxNotificationDuration.Milliseconds())
	}
	if req.MediaURL != "" && !absoluteURL(req.MediaURL) {
		return validationf("mediaUrl must be an absolute URL")
	}
	if req.Type.NeedsMedia() && req.MediaURL == "" {
		return validationf("%s notifications need a mediaUrl", req.Type)
	}
	return nil
}

// Push replaces whatever is active with a new notification, announces it and
// schedules its expiry.
func (s *NotificationService) Push(ctx context.Context, caller *models.User, req PushRequest) (*models.Notification, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stopLocked()
	replaced, err := s.store.ClearActiveNotifications(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to deactivate previous notifications: %w", err)
	}

	n := &models.Notification{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		MediaURL:  req.MediaURL,
		IsActive:  true,
		Duration:  *req.Duration,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		if replaced > 0 {
			s.hub.BroadcastAll(hub.Event{Type: hub.EventNotificationClear, Data: struct{}{}})
		}
		s.mu.Unlock()
		return nil, err
	}

	s.hub.BroadcastAll(hub.Event{Type: hub.EventNotificationActive, Data: n})
	expireNow := !s.scheduleLocked(n.ID, n.ExpiresAt())
	s.mu.Unlock()

	log.Printf("INFO: Admin %s pushed %s notification %s for %dms", caller.ID, n.Type, n.ID, n.Duration)
	if expireNow {
		s.expire(n.ID)
	}
	return n, nil
}

// ClearActive deactivates everything and always broadcasts notification:clear.
func (s *NotificationService) ClearActive(ctx context.Context, caller *models.User) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	cleared, err := s.store.ClearActiveNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	s.hub.BroadcastAll(hub.Event{Type: hub.EventNotificationClear, Data: struct{}{}})
	log.Printf("INFO: Admin %s cleared notifications (%d were active)", caller.ID, cleared)
	return nil
}

// Active returns the active notification, or ErrNotFound.
func (s *NotificationService) Active(ctx context.Context) (*models.Notification, error) {
	n, err := s.store.GetActiveNotification(ctx)
	if err != nil {
		return nil, notFound(err, "active notification")
	}
	return n, nil
}

// Restore re-arms the expiry of a notification left active by a previous
// process, expiring it at once when it is already overdue.
func (s *NotificationService) Restore(ctx context.Context) error {
	n, err := s.store.GetActiveNotification(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load active notification: %w", err)
	}

	s.mu.Lock()
	s.stopLocked()
	scheduled := s.scheduleLocked(n.ID, n.ExpiresAt())
	s.mu.Unlock()

	if !scheduled {
		log.Printf("INFO: Notification %s expired while the service was down", n.ID)
		s.expire(n.ID)
		return nil
	}
	log.Printf("INFO: Restored notification %s, expires at %s", n.ID, n.ExpiresAt().Format(time.RFC3339))
	return nil
}

// scheduleLocked arms the expiry timer. It returns false without arming when
// expiresAt is not in the future; the caller must then call expire after
// releasing the lock.
func (s *NotificationService) scheduleLocked(id string, expiresAt time.Time) bool {
	s.active = &activeNotification{id: id, expiresAt: expiresAt}
	d := expiresAt.Sub(s.clock.Now())
	if d <= 0 {
		return false
	}
	s.active.timer = s.clock.AfterFunc(d, func() { s.expire(id) })
	return true
}

func (s *NotificationService) stopLocked() {
	if s.active != nil && s.active.timer != nil {
		s.active.timer.Stop()
	}
	s.active = nil
}

// expire ends notification id if it is still the active one. A timer that
// lost the race with a clear or a newer push does nothing.
func (s *NotificationService) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.id != id {
		return
	}
	s.active = nil

	ctx, cancel := context.WithTimeout(context.Background(), s.expireTimeout)
	defer cancel()
	if _, err := s.store.ClearActiveNotifications(ctx); err != nil {
		log.Printf("ERROR: Failed to expire notification %s: %v", id, err)
		return
	}
	s.hub.BroadcastAll(hub.Event{Type: hub.EventNotificationClear, Data: struct{}{}})
	log.Printf("INFO: Notification %s expired", id)
}

// Scheduled reports the notification whose expiry is pending.
func (s *NotificationService) Scheduled() (id string, expiresAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", time.Time{}, false
	}
	return s.active.id, s.active.expiresAt, true
}

// Close stops the pending expiry timer, if any.
func (s *NotificationService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}
