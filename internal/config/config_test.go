package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoreno/microhunt/internal/chain"
	"github.com/lmoreno/microhunt/internal/common"
)

func resetEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("BRAVE_API_KEY", "")
	t.Setenv("RESEND_API_KEY", "")
	// Keep any repo-local .env out of the test.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoadDefaults(t *testing.T) {
	resetEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"USA", "UK", "Canada", "Australia"}, cfg.Regions)
	assert.Equal(t, chain.DefaultModels, cfg.Models)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryPause)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.Equal(t, 5, cfg.TopN)
	assert.InDelta(t, 30.00, cfg.Limits.MaxPrice, 0.001)
	assert.InDelta(t, 10_000_000, cfg.Limits.MinMarketCap, 1)
	assert.InDelta(t, 300_000_000, cfg.Limits.MaxMarketCap, 1)
	assert.Equal(t, "or-test", cfg.OpenRouterAPIKey)
	assert.Contains(t, cfg.LedgerPath, "microhunt")
}

func TestLoadOverrides(t *testing.T) {
	resetEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-test")

	viper.Set("hunt.regions", []string{"UK"})
	viper.Set("hunt.max_retries", 5)
	viper.Set("hunt.timeout", "3m")
	viper.Set("limits.max_price", 12.5)
	viper.Set("models.chain", []string{"some/model:free"})
	viper.Set("ledger.path", filepath.Join(t.TempDir(), "seen.db"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"UK"}, cfg.Regions)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 3*time.Minute, cfg.Timeout)
	assert.InDelta(t, 12.5, cfg.Limits.MaxPrice, 0.001)
	assert.Equal(t, []string{"some/model:free"}, cfg.Models)
}

func TestLoadRequiresOpenRouterKey(t *testing.T) {
	resetEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))
}

func TestLoadRejectsUnknownRegion(t *testing.T) {
	resetEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-test")
	viper.Set("hunt.regions", []string{"Atlantis"})

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestLoadEmailNeedsKeyAndSender(t *testing.T) {
	resetEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-test")
	viper.Set("email.recipients", []string{"desk@example.com"})

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))

	t.Setenv("RESEND_API_KEY", "re-test")
	_, err = Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))

	viper.Set("email.from", "hunts@example.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"desk@example.com"}, cfg.Recipients)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "", ExpandPath(""))

	t.Setenv("MICROHUNT_TEST_DIR", "/tmp/hunts")
	assert.Equal(t, "/tmp/hunts/seen.db", ExpandPath("$MICROHUNT_TEST_DIR/seen.db"))
}
