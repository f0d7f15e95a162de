package models

import "time"

const (
	NotificationQueued    = "queued"
	NotificationPublished = "published"
)

type AuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ActorID    uint      `gorm:"index" json:"actor_id"`
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	TargetType string    `gorm:"size:32" json:"target_type,omitempty"`
	TargetID   string    `gorm:"size:64" json:"target_id,omitempty"`
	Details    JSON      `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// Notification is an outbox row for a message addressed to a gym owner.
type Notification struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	MessageID   string     `gorm:"size:36;uniqueIndex;not null" json:"message_id"`
	GymID       uint       `gorm:"not null;index" json:"gym_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Body        string     `gorm:"type:text" json:"body"`
	Status      string     `gorm:"size:16;not null;default:'queued'" json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
