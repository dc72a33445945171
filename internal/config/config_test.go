package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cleanup := setEnvs(t, map[string]string{
		"LOGQUEST_LOGS_DIR": dir,
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		require.NoError(t, err)
		require.Equal(t, ":8901", cfg.HTTPAddr)
		require.Equal(t, "info", cfg.LogLevel)
		require.Equal(t, "./sounds", cfg.SoundPackDir)
		require.False(t, cfg.AllowUnsignedCommands)
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		other := t.TempDir()
		cfg, err := Load(Overrides{
			EnvFile:  "nonexistent.env",
			LogsDir:  other,
			HTTPAddr: ":9090",
			LogLevel: "debug",
		})
		require.NoError(t, err)
		require.Equal(t, other, cfg.LogsDir)
		require.Equal(t, ":9090", cfg.HTTPAddr)
		require.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		require.NoError(t, err)
		require.Equal(t, dir, cfg.LogsDir)
	})
}

func TestLoadMissingRequired(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"LOGQUEST_LOGS_DIR": ""})
	defer cleanup()
	os.Unsetenv("LOGQUEST_LOGS_DIR")

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	require.Error(t, err)
}

func TestValidateRequiresDirectory(t *testing.T) {
	cfg := &Config{LogsDir: "/path/does/not/exist-logquest"}
	require.Error(t, cfg.Validate())

	cfg.LogsDir = t.TempDir()
	require.NoError(t, cfg.Validate())
}

func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
