package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"swaraj/internal/asr"
	"swaraj/internal/transcription"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// NewTranscribeCmd returns the offline transcription command as a
// standalone root, for the swaraj-transcribe binary.
func NewTranscribeCmd() *cobra.Command {
	app := &appState{}
	app.loadFn = app.loadBackend

	cmd := newTranscribeCmd(app)
	cmd.Use = "swaraj-transcribe <audio-file>"
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return app.setup(cmd)
	}
	bindCommonFlags(cmd, app)
	return cmd
}

func newTranscribeCmd(app *appState) *cobra.Command {
	var (
		format  string
		output  string
		decoder string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a local audio file without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "text", "json", "srt":
			default:
				return fmt.Errorf("unknown format %q (want text, json or srt)", format)
			}

			dec, err := asr.ParseDecoder(decoder)
			if err != nil {
				return err
			}

			result, err := app.transcribeFile(cmd.Context(), args[0], transcription.Options{
				Language: app.cfg.Language,
				Decoder:  dec,
			})
			if err != nil {
				return err
			}

			rendered, err := render(result, format)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(app.outWriter(cmd), rendered)
				return nil
			}
			if err := os.WriteFile(output, []byte(rendered+"\n"), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			app.log().Info("transcript written", zap.String("path", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text|json|srt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the transcript to a file instead of stdout")
	cmd.Flags().StringVar(&decoder, "decoder", "ctc", "Conformer decoding head: ctc|rnnt")
	return cmd
}

// transcribeFile copies the input into a scratch directory so intermediate
// files never land next to the user's audio.
func (a *appState) transcribeFile(ctx context.Context, audioPath string, opts transcription.Options) (result *transcription.Result, err error) {
	audioPath = filepath.Clean(audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	scratch, err := os.MkdirTemp(a.cfg.TempDir, "swaraj-cli-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			a.log().Warn("failed to remove scratch dir", zap.String("path", scratch), zap.Error(rmErr))
		}
	}()

	staged := filepath.Join(scratch, "input"+filepath.Ext(audioPath))
	if err := copyFile(audioPath, staged); err != nil {
		return nil, err
	}

	backend, err := a.loadFn(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, backend.Close())
	}()

	a.log().Info("transcribing...", zap.String("audio", audioPath), zap.String("backend", backend.Name()))
	stopSpinner := startSpinner(a.progressEnabled(), "Transcribing")
	started := time.Now()

	result, err = backend.Transcribe(ctx, staged, opts)
	stopSpinner()
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return nil, err
	}
	a.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)), zap.Float64("duration", result.Duration))
	return result, nil
}

func render(result *transcription.Result, format string) (string, error) {
	switch format {
	case "json":
		return result.FormatAsJSON()
	case "srt":
		return result.FormatAsSRT(), nil
	default:
		return result.FormatAsText(), nil
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("stage audio: %w", err)
	}
	_, copyErr := io.Copy(out, in)
	if err := multierr.Combine(copyErr, out.Close()); err != nil {
		return fmt.Errorf("stage audio: %w", err)
	}
	return nil
}
