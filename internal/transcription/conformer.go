package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"

	"swaraj/internal/asr"
	"swaraj/internal/logging"

	"go.uber.org/zap"
)

// CTCRecognizer is the slice of asr.ConformerRecognizer the conformer
// backend needs.
type CTCRecognizer interface {
	Language() string
	RecognizeFiles(paths []string, decoder asr.Decoder) ([]asr.Hypothesis, error)
	Close() error
}

// MediaTools converts uploads to model input and measures them.
type MediaTools interface {
	ConvertToWav(ctx context.Context, inputPath, outputPath string) error
	ProbeDuration(ctx context.Context, inputPath string) (float64, error)
}

// ConformerBackend resamples the upload to 16kHz mono WAV, decodes it with
// the requested head of a hybrid CTC/RNNT conformer and reports the
// converted file's duration. Results are unsegmented.
type ConformerBackend struct {
	model  CTCRecognizer
	tools  MediaTools
	logger *zap.Logger
}

// NewConformerBackend creates a conformer backend around a loaded recognizer.
func NewConformerBackend(model CTCRecognizer, tools MediaTools, logger *zap.Logger) *ConformerBackend {
	return &ConformerBackend{
		model:  model,
		tools:  tools,
		logger: logging.OrNop(logger).Named(BackendConformer),
	}
}

func (b *ConformerBackend) Name() string    { return BackendConformer }
func (b *ConformerBackend) Segmented() bool { return false }

// Transcribe converts audioPath next to itself (audioPath + ".wav"), decodes
// it and removes the converted file on every path.
func (b *ConformerBackend) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	if err := checkLanguage(opts.Language, b.model.Language()); err != nil {
		return nil, err
	}
	decoder := opts.Decoder
	if decoder == "" {
		decoder = asr.DecoderCTC
	}

	wavPath := audioPath + ".wav"
	defer func() {
		if err := os.Remove(wavPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn("failed to remove converted audio", zap.String("path", wavPath), zap.Error(err))
		}
	}()

	if err := b.tools.ConvertToWav(ctx, audioPath, wavPath); err != nil {
		return nil, fmt.Errorf("convert upload: %w", err)
	}

	hyps, err := b.model.RecognizeFiles([]string{wavPath}, decoder)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	text := firstText(hyps)

	duration, err := b.tools.ProbeDuration(ctx, wavPath)
	if err != nil {
		b.logger.Debug("duration probe failed, reporting 0", zap.Error(err))
		duration = 0
	}

	return &Result{
		Text:     text,
		Duration: round2(duration),
	}, nil
}

// Close releases the model.
func (b *ConformerBackend) Close() error {
	return b.model.Close()
}
