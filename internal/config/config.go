// Package config reads service settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultPort            = "8000"
	DefaultBackend         = "conformer"
	DefaultModelDir        = "models"
	DefaultConformerModel  = "ai4bharat/indicconformer_stt_hi_hybrid_ctc_rnnt_large"
	DefaultWhisperModel    = "whisper-small"
	DefaultVADModel        = "silero_vad"
	DefaultLanguage        = "hi"
	DefaultDevice          = "auto"
	DefaultNumThreads      = 4
	DefaultWorkers         = 1
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds every setting the server and CLI read.
type Config struct {
	Port            string
	Backend         string // conformer or whisper
	ModelDir        string
	ConformerModel  string
	WhisperModel    string
	VADModel        string
	VADEnabled      bool
	Language        string
	Device          string // auto, cpu or cuda; whisper always runs on cpu
	NumThreads      int
	Workers         int
	TempDir         string
	AutoDownload    bool
	LogJSON         bool
	LogVerbose      bool
	ShutdownTimeout time.Duration
}

// Load reads .env (if present) and the environment. Unset keys take their
// defaults; malformed values are errors.
func Load() (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}
	cfg := &Config{
		Port:            r.str("PORT", DefaultPort),
		Backend:         strings.ToLower(r.str("ASR_BACKEND", DefaultBackend)),
		ModelDir:        r.str("MODEL_DIR", DefaultModelDir),
		ConformerModel:  r.str("CONFORMER_MODEL", DefaultConformerModel),
		WhisperModel:    r.str("WHISPER_MODEL", DefaultWhisperModel),
		VADModel:        r.str("VAD_MODEL", DefaultVADModel),
		VADEnabled:      r.boolean("VAD_ENABLED", true),
		Language:        r.str("LANGUAGE", DefaultLanguage),
		Device:          strings.ToLower(r.str("DEVICE", DefaultDevice)),
		NumThreads:      r.integer("NUM_THREADS", DefaultNumThreads),
		Workers:         r.integer("WORKERS", DefaultWorkers),
		TempDir:         r.str("TEMP_DIR", ""),
		AutoDownload:    r.boolean("AUTO_DOWNLOAD", false),
		LogJSON:         r.boolean("LOG_JSON", false),
		LogVerbose:      r.boolean("LOG_VERBOSE", false),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
	}
	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Backend {
	case "conformer", "whisper":
	default:
		return fmt.Errorf("unknown backend %q (want conformer or whisper)", c.Backend)
	}
	switch c.Device {
	case "auto", "cpu", "cuda", "gpu":
	default:
		return fmt.Errorf("unknown device %q (want auto, cpu or cuda)", c.Device)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("num threads must be positive, got %d", c.NumThreads)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("language must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// reader accumulates the first parse error so FromEnv stays linear.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
