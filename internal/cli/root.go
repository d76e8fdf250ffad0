// Package cli wires configuration, model loading and the HTTP server into
// cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"swaraj/internal/config"
	"swaraj/internal/logging"
	"swaraj/internal/modelhub"
	"swaraj/internal/server"
	"swaraj/internal/transcription"
	"swaraj/internal/version"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type appState struct {
	cfg        *config.Config
	noProgress bool

	// flag values; applied over the environment only when set
	backend      string
	modelDir     string
	language     string
	device       string
	threads      int
	autoDownload bool
	verbose      bool
	jsonLogs     bool
	port         string
	workers      int
	model        string
	vad          bool

	logger *zap.Logger
	out    io.Writer

	loadFn  func(ctx context.Context, cfg *config.Config) (transcription.Backend, error)
	serveFn func(ctx context.Context, e *echo.Echo) error
}

// NewRootCmd returns the server command with its subcommands attached.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&appState{})
}

func newRootCmd(app *appState) *cobra.Command {
	if app.loadFn == nil {
		app.loadFn = app.loadBackend
	}
	if app.serveFn == nil {
		app.serveFn = func(ctx context.Context, e *echo.Echo) error {
			return server.Run(ctx, e, app.cfg.Addr(), app.cfg.ShutdownTimeout, app.log())
		}
	}

	cmd := &cobra.Command{
		Use:           "swaraj",
		Short:         "Hindi speech-to-text HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.serve(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindCommonFlags(cmd, app)
	cmd.Flags().StringVar(&app.port, "port", config.DefaultPort, "Port to listen on (PORT)")
	cmd.Flags().IntVar(&app.workers, "workers", config.DefaultWorkers, "Concurrent inference workers (WORKERS)")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newPullModelCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindCommonFlags(cmd *cobra.Command, app *appState) {
	f := cmd.PersistentFlags()
	f.StringVar(&app.backend, "backend", config.DefaultBackend, "ASR backend: conformer|whisper (ASR_BACKEND)")
	f.StringVar(&app.model, "model", "", "Model name or path for the selected backend (CONFORMER_MODEL / WHISPER_MODEL)")
	f.StringVar(&app.modelDir, "model-dir", config.DefaultModelDir, "Directory where models are stored (MODEL_DIR)")
	f.StringVar(&app.language, "language", config.DefaultLanguage, "Language code the model serves (LANGUAGE)")
	f.StringVar(&app.device, "device", config.DefaultDevice, "Inference device: auto|cpu|cuda (DEVICE)")
	f.IntVar(&app.threads, "threads", config.DefaultNumThreads, "Threads per inference (NUM_THREADS)")
	f.BoolVar(&app.vad, "vad", true, "Skip non-speech with Silero VAD, whisper only (VAD_ENABLED)")
	f.BoolVar(&app.autoDownload, "auto-download", false, "Download missing models on startup (AUTO_DOWNLOAD)")
	f.BoolVar(&app.verbose, "verbose", false, "Enable verbose logs (LOG_VERBOSE)")
	f.BoolVar(&app.jsonLogs, "json", false, "Enable JSON logging (LOG_JSON)")
	f.BoolVar(&app.noProgress, "no-progress", false, "Disable progress indicators")
}

// setup loads the environment, lets explicitly set flags win, and builds
// the logger.
func (a *appState) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	changed := flags.Changed
	if changed("backend") {
		cfg.Backend = a.backend
	}
	if changed("model-dir") {
		cfg.ModelDir = a.modelDir
	}
	if changed("language") {
		cfg.Language = a.language
	}
	if changed("device") {
		cfg.Device = a.device
	}
	if changed("threads") {
		cfg.NumThreads = a.threads
	}
	if changed("vad") {
		cfg.VADEnabled = a.vad
	}
	if changed("auto-download") {
		cfg.AutoDownload = a.autoDownload
	}
	if changed("verbose") {
		cfg.LogVerbose = a.verbose
	}
	if changed("json") {
		cfg.LogJSON = a.jsonLogs
	}
	if changed("port") {
		cfg.Port = a.port
	}
	if changed("workers") {
		cfg.Workers = a.workers
	}
	if changed("model") {
		if cfg.Backend == transcription.BackendWhisper {
			cfg.WhisperModel = a.model
		} else {
			cfg.ConformerModel = a.model
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Verbose: cfg.LogVerbose, JSON: cfg.LogJSON, Service: "swaraj"})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *appState) pullOptions() modelhub.PullOptions {
	return modelhub.PullOptions{
		AutoDownload: a.cfg.AutoDownload,
		NoProgress:   !a.progressEnabled(),
		Logger:       a.log(),
	}
}

func (a *appState) log() *zap.Logger {
	return logging.OrNop(a.logger)
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter(cmd *cobra.Command) io.Writer {
	if a.out != nil {
		return a.out
	}
	return cmd.OutOrStdout()
}
