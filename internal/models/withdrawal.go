package models

import (
	"time"

	"gymledger/internal/money"
)

const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
	WithdrawalFailed    = "failed"
)

// Withdrawal is a gym's request to be paid out. Its amount is held out of
// the gym balance from the moment it is created; a failed withdrawal gives
// it back.
type Withdrawal struct {
	ID                  uint         `gorm:"primarykey" json:"id"`
	Reference           string       `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	GymID               uint         `gorm:"not null;index" json:"gym_id"`
	Amount              money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Status              string       `gorm:"size:16;not null;default:'pending';index" json:"status"`
	RequestedBy         uint         `json:"requested_by"`
	RequestedAt         time.Time    `gorm:"not null;index" json:"requested_at"`
	ProcessedAt         *time.Time   `json:"processed_at,omitempty"`
	ProcessedBy         *uint        `json:"processed_by,omitempty"`
	SettlementReference string       `gorm:"size:128" json:"settlement_reference,omitempty"`
	ResolutionNote      string       `gorm:"size:500" json:"resolution_note,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func (w *Withdrawal) IsPending() bool {
	return w.Status == WithdrawalPending
}

func IsWithdrawalStatus(status string) bool {
	switch status {
	case WithdrawalPending, WithdrawalCompleted, WithdrawalFailed:
		return true
	}
	return false
}
