package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envFrom(nil))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, ":8000", cfg.Addr())
	require.Equal(t, "conformer", cfg.Backend)
	require.Equal(t, DefaultConformerModel, cfg.ConformerModel)
	require.Equal(t, "hi", cfg.Language)
	require.True(t, cfg.VADEnabled)
	require.Equal(t, 1, cfg.Workers)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envFrom(map[string]string{
		"PORT":             "9000",
		"ASR_BACKEND":      "Whisper",
		"VAD_ENABLED":      "false",
		"WORKERS":          "2",
		"SHUTDOWN_TIMEOUT": "3s",
		"DEVICE":           " CPU ",
		"LANGUAGE":         "",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "whisper", cfg.Backend)
	require.False(t, cfg.VADEnabled)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, "cpu", cfg.Device)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, "hi", cfg.Language, "blank values fall back to defaults")
}

func TestFromEnvMalformed(t *testing.T) {
	t.Parallel()

	_, err := FromEnv(envFrom(map[string]string{"WORKERS": "many"}))
	require.ErrorContains(t, err, "WORKERS")

	_, err = FromEnv(envFrom(map[string]string{"LOG_JSON": "maybe"}))
	require.ErrorContains(t, err, "LOG_JSON")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base, err := FromEnv(envFrom(nil))
	require.NoError(t, err)

	for name, mutate := range map[string]func(*Config){
		"backend": func(c *Config) { c.Backend = "wav2vec" },
		"device":  func(c *Config) { c.Device = "tpu" },
		"port":    func(c *Config) { c.Port = "http" },
		"threads": func(c *Config) { c.NumThreads = 0 },
		"workers": func(c *Config) { c.Workers = -1 },
		"timeout": func(c *Config) { c.ShutdownTimeout = 0 },
	} {
		cfg := *base
		mutate(&cfg)
		require.Error(t, cfg.Validate(), name)
	}
}
