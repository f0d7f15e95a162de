package models

import (
	"time"

	"gymledger/internal/money"
)

// GymAccount carries the spendable balance of one gym. The balance is only
// ever changed through the ledger repository's credit and debit helpers.
type GymAccount struct {
	GymID     uint         `gorm:"primaryKey;autoIncrement:false" json:"gym_id"`
	Name      string       `gorm:"size:255;not null" json:"name"`
	OwnerID   uint         `gorm:"index" json:"owner_id"`
	Balance   money.Amount `gorm:"type:bigint;not null;default:0" json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
