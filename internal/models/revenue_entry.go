package models

import (
	"errors"
	"time"

	"gymledger/internal/money"

	"gorm.io/gorm"
)

const (
	SourceMembershipPurchase = "membership_purchase"
	SourceBooking            = "booking"
	SourceReversal           = "reversal"
)

var ErrImmutableEntry = errors.New("revenue entries are append-only")

// RevenueEntry is one billable event. GymShare + PlatformCut == GrossAmount.
// Reversals carry negated amounts and point at the entry they offset.
type RevenueEntry struct {
	ID             uint         `gorm:"primarykey" json:"id"`
	Reference      string       `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	GymID          uint         `gorm:"not null;index:idx_revenue_gym_occurred" json:"gym_id"`
	SourceType     string       `gorm:"size:32;not null;index" json:"source_type"`
	GrossAmount    money.Amount `gorm:"type:bigint;not null" json:"gross_amount"`
	PlatformCut    money.Amount `gorm:"type:bigint;not null" json:"platform_cut"`
	GymShare       money.Amount `gorm:"type:bigint;not null" json:"gym_share"`
	CommissionRate string       `gorm:"size:16" json:"commission_rate"`
	BookingID      *uint        `gorm:"index" json:"booking_id,omitempty"`
	MembershipID   *uint        `gorm:"index" json:"membership_id,omitempty"`
	ReversalOfID   *uint        `gorm:"uniqueIndex" json:"reversal_of_id,omitempty"`
	Description    string       `gorm:"size:500" json:"description,omitempty"`
	RecordedBy     uint         `json:"recorded_by"`
	OccurredAt     time.Time    `gorm:"not null;index:idx_revenue_gym_occurred" json:"occurred_at"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (e *RevenueEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableEntry
}

func (e *RevenueEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableEntry
}

func IsRevenueSource(sourceType string) bool {
	return sourceType == SourceMembershipPurchase || sourceType == SourceBooking
}
