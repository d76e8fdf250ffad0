package asr

import (
	"fmt"
	"strings"
)

// Hypothesis is one decoded utterance as returned by a recognizer.
type Hypothesis struct {
	Text       string
	Tokens     []string
	Timestamps []float32 // per-token start offsets in seconds, when the model emits them
}

// Segment is a contiguous span of recognized speech.
// Times are seconds from the start of the audio.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Info describes the decoded audio as a whole.
type Info struct {
	Duration float64 // seconds of decoded audio
	Language string
}

// Decoder selects the decoding head of a hybrid CTC/RNNT model.
type Decoder string

const (
	DecoderCTC  Decoder = "ctc"
	DecoderRNNT Decoder = "rnnt"
)

// ParseDecoder maps a user-supplied decoder name to a Decoder.
// The empty string selects CTC.
func ParseDecoder(s string) (Decoder, error) {
	switch Decoder(strings.ToLower(strings.TrimSpace(s))) {
	case "", DecoderCTC:
		return DecoderCTC, nil
	case DecoderRNNT, "tdt", "transducer":
		return DecoderRNNT, nil
	default:
		return "", fmt.Errorf("unknown decoder %q (want ctc or rnnt)", s)
	}
}
