// Command admin_seed opens a demo gym account with membership plans and
// prints a signed admin token for calling the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"gymledger/internal/clock"
	"gymledger/internal/config"
	apperrors "gymledger/internal/errors"
	"gymledger/internal/logger"
	"gymledger/internal/models"
	"gymledger/internal/money"
	"gymledger/internal/repositories"
	"gymledger/internal/services/ledger"
	"gymledger/internal/services/notification"
	"gymledger/internal/utils"

	"go.uber.org/zap"
)

func main() {
	gymID := flag.Uint("gym", 1, "gym id of the demo account")
	gymName := flag.String("name", "Demo Gym", "gym name")
	adminID := flag.Uint("admin", 1, "admin id to put in the token")
	email := flag.String("email", "admin@gymledger.local", "admin email to put in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zl, err := logger.New(false)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := repositories.InitDB(cfg, zl); err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer repositories.Close()

	ctx := context.Background()
	rate, err := cfg.Commission()
	if err != nil {
		zl.Fatal("invalid commission rate", zap.Error(err))
	}
	if err := seed(ctx, ledger.FixedCommission(rate), *gymID, *gymName, *adminID, zl); err != nil {
		zl.Fatal("seeding failed", zap.Error(err))
	}

	token, err := utils.GenerateAdminToken(cfg.JWTSecret, &models.AdminClaims{
		AdminID:     *adminID,
		Email:       *email,
		Role:        models.RoleAdmin,
		Permissions: models.GetDefaultPermissions(models.RoleAdmin),
	}, *ttl, time.Now())
	if err != nil {
		zl.Fatal("failed to sign admin token", zap.Error(err))
	}
	fmt.Println(token)
}

func seed(ctx context.Context, commission ledger.CommissionSource, gymID uint, name string, adminID uint, zl *zap.Logger) error {
	clk := clock.System()
	sink := notification.NewService(repositories.NewAuditRepository(repositories.DB), nil, "", clk, zl)
	svc := ledger.NewService(repositories.NewLedgerRepository(repositories.DB), commission, sink, ledger.Options{
		Clock:  clk,
		Logger: zl,
	})

	_, err := svc.OpenAccount(ctx, ledger.OpenAccountInput{GymID: gymID, Name: name, OwnerID: adminID})
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		zl.Info("gym account already exists", zap.Uint("gym_id", gymID))
		return nil
	case err != nil:
		return err
	}

	catalog := repositories.NewCatalogRepository(repositories.DB)
	plans := []models.MembershipPlan{
		{GymID: gymID, Name: "Basic Monthly", Tier: "basic", Price: money.MustParse("29.99"), DurationDays: 30},
		{GymID: gymID, Name: "Premium Monthly", Tier: "premium", Price: money.MustParse("59.99"), DurationDays: 30},
		{GymID: gymID, Name: "VIP Annual", Tier: "vip", Price: money.MustParse("899.00"), DurationDays: 365},
	}
	for i := range plans {
		if err := catalog.CreatePlan(ctx, &plans[i]); err != nil {
			return err
		}
	}
	zl.Info("✅ demo gym seeded", zap.Uint("gym_id", gymID), zap.Int("plans", len(plans)))
	return nil
}
