package transcription

import (
	"context"
	"fmt"
	"iter"

	"swaraj/internal/asr"
	"swaraj/internal/logging"

	"go.uber.org/zap"
)

// SegmentRecognizer is the slice of asr.WhisperRecognizer the whisper
// backend needs.
type SegmentRecognizer interface {
	Language() string
	Transcribe(ctx context.Context, inputPath string) (iter.Seq2[asr.Segment, error], asr.Info, error)
	Close() error
}

// WhisperBackend feeds the upload to Whisper as-is and aggregates the timed
// segments it yields.
type WhisperBackend struct {
	model  SegmentRecognizer
	logger *zap.Logger
}

// NewWhisperBackend creates a whisper backend around a loaded recognizer.
func NewWhisperBackend(model SegmentRecognizer, logger *zap.Logger) *WhisperBackend {
	return &WhisperBackend{
		model:  model,
		logger: logging.OrNop(logger).Named(BackendWhisper),
	}
}

func (b *WhisperBackend) Name() string    { return BackendWhisper }
func (b *WhisperBackend) Segmented() bool { return true }

// Transcribe consumes the whole segment sequence before returning.
func (b *WhisperBackend) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	if err := checkLanguage(opts.Language, b.model.Language()); err != nil {
		return nil, err
	}

	seq, info, err := b.model.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	// Blank segments are dropped here, not kept with empty text; the
	// transcript is still exactly the segment texts joined by spaces.
	segments, text, err := Aggregate(seq)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	b.logger.Debug("segments aggregated", zap.Int("segments", len(segments)), zap.Float64("duration", info.Duration))

	return &Result{
		Text:     text,
		Segments: segments,
		Duration: round2(info.Duration),
	}, nil
}

// Close releases the model.
func (b *WhisperBackend) Close() error {
	return b.model.Close()
}
