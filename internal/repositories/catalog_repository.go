package repositories

import (
	"context"
	"fmt"

	"gymledger/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository writes the membership and booking records revenue
// entries point at. The booking platform owns these in production; the
// seeder and tests use this repository to create them.
type CatalogRepository interface {
	CreatePlan(ctx context.Context, plan *models.MembershipPlan) error
	CreateMembership(ctx context.Context, m *models.Membership) error
	CreateBooking(ctx context.Context, b *models.Booking) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("failed to create membership plan: %w", err)
	}
	return nil
}

func (r *catalogRepository) CreateMembership(ctx context.Context, m *models.Membership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *catalogRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}
