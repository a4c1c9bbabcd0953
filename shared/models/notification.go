// shared/models/notification.go
package models

import (
	"math"
	"time"
)

type NotificationType string

const (
	NotificationText  NotificationType = "text"
	NotificationImage NotificationType = "image"
	NotificationVideo NotificationType = "video"
	NotificationAudio NotificationType = "audio"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationText, NotificationImage, NotificationVideo, NotificationAudio:
		return true
	}
	return false
}

// NeedsMedia reports whether the type is rendered from MediaURL.
func (t NotificationType) NeedsMedia() bool {
	return t == NotificationImage || t == NotificationVideo || t == NotificationAudio
}

// Notification is an admin takeover message. At most one is active at a time.
// Duration is in milliseconds.
type Notification struct {
	ID        string           `bson:"_id" json:"id"`
	Type      NotificationType `bson:"type" json:"type"`
	Title     string           `bson:"title,omitempty" json:"title,omitempty"`
	Message   string           `bson:"message,omitempty" json:"message,omitempty"`
	MediaURL  string           `bson:"media_url,omitempty" json:"mediaUrl,omitempty"`
	IsActive  bool             `bson:"is_active" json:"isActive"`
	Duration  int64            `bson:"duration" json:"duration"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
}

// ExpiresAt is CreatedAt plus Duration, saturating instead of overflowing.
func (n Notification) ExpiresAt() time.Time {
	ms := n.Duration
	if limit := int64(math.MaxInt64 / int64(time.Millisecond)); ms > limit {
		ms = limit
	}
	return n.CreatedAt.Add(time.Duration(ms) * time.Millisecond)
}
