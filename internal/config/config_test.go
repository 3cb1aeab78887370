package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("PAYMENT_PROVIDER", "")
	t.Setenv("PRICING_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Payment.Provider)
	assert.Equal(t, "file", cfg.Email.Provider)
	assert.Equal(t, int64(4900), cfg.Pricing.Standard.PriceCents)
	assert.Equal(t, 24*time.Hour, cfg.Pricing.Standard.SLA())
	assert.Equal(t, int64(9900), cfg.Pricing.Urgent.PriceCents)
	assert.Equal(t, 6*time.Hour, cfg.Pricing.Urgent.SLA())
}

func TestLoadPricingFromEnv(t *testing.T) {
	t.Setenv("URGENT_PRICE_CENTS", "15000")
	t.Setenv("URGENT_SLA_HOURS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	tier, ok := cfg.Pricing.Tier("urgent")
	require.True(t, ok)
	assert.Equal(t, int64(15000), tier.PriceCents)
	assert.Equal(t, 2, tier.SLAHours)
}

func TestLoadRejectsStripeWithoutKey(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "stripe")
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadPricingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `currency: EUR
tiers:
  standard: {price_cents: 3000, sla_hours: 48}
  urgent: {price_cents: 8000, sla_hours: 4}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	pricing, err := LoadPricingFile(path)
	require.NoError(t, err)

	assert.Equal(t, "eur", pricing.Currency)
	assert.Equal(t, PriceTier{PriceCents: 3000, SLAHours: 48}, pricing.Standard)
	assert.Equal(t, PriceTier{PriceCents: 8000, SLAHours: 4}, pricing.Urgent)
}

func TestLoadPricingFileRejectsUnknownTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `tiers:
  standard: {price_cents: 3000, sla_hours: 48}
  urgent: {price_cents: 8000, sla_hours: 4}
  overnight: {price_cents: 100, sla_hours: 12}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadPricingFile(path)
	assert.ErrorContains(t, err, "overnight")
}

func TestLoadPricingFileRejectsMissingTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  standard: {price_cents: 3000, sla_hours: 48}\n"), 0o644))

	_, err := LoadPricingFile(path)
	assert.ErrorContains(t, err, "urgent")
}

func TestSQLiteDSN(t *testing.T) {
	c := DatabaseConfig{URL: "sqlite:///./data/yaguy.db"}
	assert.False(t, c.IsPostgres())
	assert.Equal(t, "./data/yaguy.db", c.GetSQLitePath())
	assert.Equal(t, "./data/yaguy.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.GetSQLiteDSN())

	pg := DatabaseConfig{URL: "postgresql://u:p@localhost:5432/yaguy?sslmode=disable"}
	assert.True(t, pg.IsPostgres())
}
