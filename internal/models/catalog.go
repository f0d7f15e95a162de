package models

import (
	"time"

	"gymledger/internal/money"
)

// TierUnassigned labels revenue that cannot be traced to a membership plan.
const TierUnassigned = "unassigned"

type MembershipPlan struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	GymID        uint         `gorm:"not null;index" json:"gym_id"`
	Name         string       `gorm:"size:255;not null" json:"name"`
	Tier         string       `gorm:"size:32;not null;index" json:"tier"`
	Price        money.Amount `gorm:"type:bigint;not null" json:"price"`
	DurationDays int          `json:"duration_days"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Membership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	GymID     uint      `gorm:"not null;index" json:"gym_id"`
	MemberID  uint      `gorm:"not null;index" json:"member_id"`
	PlanID    uint      `gorm:"not null;index" json:"plan_id"`
	Status    string    `gorm:"size:16;default:'active'" json:"status"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Booking struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	GymID        uint      `gorm:"not null;index" json:"gym_id"`
	MemberID     uint      `gorm:"not null;index" json:"member_id"`
	MembershipID *uint     `gorm:"index" json:"membership_id,omitempty"`
	ClassName    string    `gorm:"size:255" json:"class_name"`
	Status       string    `gorm:"size:16;default:'confirmed'" json:"status"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	CreatedAt    time.Time `json:"created_at"`
}
