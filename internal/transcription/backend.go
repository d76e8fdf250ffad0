// Package transcription turns an audio file on disk into a Result using one
// of the loaded speech models. The HTTP layer only sees Backend.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"math"

	"swaraj/internal/asr"
)

// ErrUnsupportedLanguage is returned when a request asks for a language the
// loaded model was not built for.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Backend names.
const (
	BackendConformer = "conformer"
	BackendWhisper   = "whisper"
)

// Options are the per-request inference parameters. They are passed into
// every call rather than set on the shared model.
type Options struct {
	Language string      // empty selects the model's language
	Decoder  asr.Decoder // conformer only; empty selects CTC
}

// Backend is a loaded speech model that can transcribe one file at a time.
type Backend interface {
	Name() string
	// Segmented reports whether results carry timed segments.
	Segmented() bool
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error)
	Close() error
}

func checkLanguage(requested, supported string) error {
	if requested == "" || requested == supported {
		return nil
	}
	return fmt.Errorf("%w: %q (model serves %q)", ErrUnsupportedLanguage, requested, supported)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
