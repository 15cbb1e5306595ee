package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/config"
)

type storeFileConfig struct {
	Backend   string   `env:"TEST_FSM_BACKEND"`
	CacheSize int      `env:"TEST_FSM_CACHE_SIZE"`
	Tiers     []string `env:"TEST_FSM_TIERS" envSeparator:","`
}

type reloadConfig struct {
	Required string `env:"TEST_FSM_RELOAD_REQUIRED,required"`
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadEnv_Files(t *testing.T) {
	unsetenv(t, "TEST_FSM_BACKEND", "TEST_FSM_CACHE_SIZE", "TEST_FSM_TIERS")

	base := writeEnv(t, "TEST_FSM_BACKEND=memory\nTEST_FSM_CACHE_SIZE=16\nTEST_FSM_TIERS=persistent,instance\n")
	override := writeEnv(t, "TEST_FSM_BACKEND=\"redis\"\n")

	require.NoError(t, config.LoadEnv(base, override))

	var cfg storeFileConfig
	require.NoError(t, config.ForceReloadConfig(&cfg))
	assert.Equal(t, "redis", cfg.Backend, "later files win")
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, []string{"persistent", "instance"}, cfg.Tiers)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)

	assert.Panics(t, func() {
		config.MustLoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	})
}

func TestForceReloadConfig(t *testing.T) {
	unsetenv(t, "TEST_FSM_RELOAD_REQUIRED")
	config.ResetCache()

	var cfg reloadConfig
	require.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)

	t.Setenv("TEST_FSM_RELOAD_REQUIRED", "set")
	require.NoError(t, config.ForceReloadConfig(&cfg))
	assert.Equal(t, "set", cfg.Required)

	assert.ErrorIs(t, config.ForceReloadConfig[reloadConfig](nil), config.ErrNilPointer)
}
