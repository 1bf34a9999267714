package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/quotedesk/quotedesk/internal/testing/guard"

	"github.com/quotedesk/quotedesk/internal/quote"
)

func setConfigEnv(t *testing.T, extra map[string]string) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "test-secret")
	for k, v := range extra {
		t.Setenv(k, v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setConfigEnv(t, nil)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, quote.PeriodYear, cfg.NumberPeriod())
	assert.Equal(t, "$", cfg.CurrencySymbol)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigMonthlyNumbering(t *testing.T) {
	setConfigEnv(t, map[string]string{"QUOTE_NUMBER_PERIOD": "month"})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, quote.PeriodMonth, cfg.NumberPeriod())
}

func TestLoadConfigRejectsUnknownPeriod(t *testing.T) {
	setConfigEnv(t, map[string]string{"QUOTE_NUMBER_PERIOD": "weekly"})

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestInTestModeHonorsGuard(t *testing.T) {
	// The guard import above sets the flag before any test runs.
	assert.Equal(t, "1", os.Getenv("QUOTEDESK_TEST_MODE"))
	RefreshTestMode()
	assert.True(t, InTestMode())
}
