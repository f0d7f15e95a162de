// Package models holds the GORM models of the gym ledger.
package models

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&GymAccount{},
		&MembershipPlan{},
		&Membership{},
		&Booking{},
		&RevenueEntry{},
		&Withdrawal{},
		&AuditLog{},
		&Notification{},
	}
}
