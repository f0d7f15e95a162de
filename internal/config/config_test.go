package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("COMMISSION_RATE", "")

	cfg, err := Load()
	require.NoError(t, err)

	rate, err := cfg.Commission()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(10)), "got %s", rate)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, "0 3 * * *", cfg.ReconcileSchedule)
	assert.Equal(t, "notifications", cfg.NotificationExchange)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("COMMISSION_RATE", "12.5")
	t.Setenv("BUSINESS_TIMEZONE", "Europe/Paris")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("REPORT_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	rate, err := cfg.Commission()
	require.NoError(t, err)
	assert.Equal(t, "12.5", rate.String())
	assert.Equal(t, 7, cfg.DBMaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.ReportCacheTTL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestLoad_RejectsBadCommission(t *testing.T) {
	for _, rate := range []string{"abc", "-1", "100.01"} {
		t.Run(rate, func(t *testing.T) {
			t.Setenv("COMMISSION_RATE", rate)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionNeedsJWTSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
