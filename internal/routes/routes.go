// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"gymledger/internal/handlers"
	"gymledger/internal/middleware"
	"gymledger/internal/models"
	"gymledger/internal/services/ledger"
	"gymledger/internal/services/report"
	"gymledger/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	DB          *gorm.DB
	Cache       handlers.Pinger
	Ledger      ledger.Service
	Withdrawals withdrawal.Service
	Reports     report.Service
	Location    *time.Location
	JWTSecret   string
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Cache)
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledger, log)
	withdrawalHandler := handlers.NewWithdrawalHandler(deps.Withdrawals, deps.Location, log)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Location, log)

	app.Get("/health", healthHandler.HealthCheck)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	admin := app.Group("/api/admin", middleware.AdminAuth(deps.JWTSecret, log))

	// Ledger
	admin.Post("/gyms", middleware.HasPermission(models.PermissionLedgerWrite), ledgerHandler.OpenAccount)
	admin.Get("/gyms/:gymID/balance", middleware.HasPermission(models.PermissionLedgerRead), ledgerHandler.GetBalance)
	admin.Get("/gyms/:gymID/reconcile", middleware.HasPermission(models.PermissionLedgerRead), ledgerHandler.Reconcile)
	admin.Get("/reconcile", middleware.HasPermission(models.PermissionLedgerRead), ledgerHandler.ReconcileAll)
	admin.Post("/revenue", middleware.HasPermission(models.PermissionLedgerWrite), ledgerHandler.RecordRevenue)
	admin.Post("/revenue/:id/reverse", middleware.HasPermission(models.PermissionLedgerWrite), ledgerHandler.ReverseEntry)

	// Withdrawals
	admin.Post("/gyms/:gymID/withdrawals", middleware.HasPermission(models.PermissionWithdrawalWrite), withdrawalHandler.RequestWithdrawal)
	admin.Get("/withdrawals", middleware.HasPermission(models.PermissionLedgerRead), withdrawalHandler.ListWithdrawals)
	admin.Get("/withdrawals/:id", middleware.HasPermission(models.PermissionLedgerRead), withdrawalHandler.GetWithdrawal)
	admin.Post("/withdrawals/:id/settle", middleware.HasPermission(models.PermissionSettle), withdrawalHandler.Settle)
	admin.Post("/withdrawals/:id/reject", middleware.HasPermission(models.PermissionSettle), withdrawalHandler.Reject)

	// Reports
	admin.Get("/reports", middleware.HasPermission(models.PermissionReportRead), reportHandler.GetReport)
	admin.Get("/reports/presets", middleware.HasPermission(models.PermissionReportRead), reportHandler.ListPresets)
}
