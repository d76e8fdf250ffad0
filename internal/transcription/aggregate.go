package transcription

import (
	"iter"
	"strings"

	"swaraj/internal/asr"
)

// Aggregate drains a lazy segment sequence into rounded, trimmed segments
// and the space-joined transcript. Segments with no text after trimming are
// dropped, so joining the returned segments' text with single spaces always
// reproduces the returned transcript.
func Aggregate(seq iter.Seq2[asr.Segment, error]) ([]Segment, string, error) {
	segments := make([]Segment, 0)
	parts := make([]string, 0)

	for seg, err := range seq {
		if err != nil {
			return nil, "", err
		}

		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		start, end := round2(seg.Start), round2(seg.End)
		if end < start {
			end = start
		}

		segments = append(segments, Segment{Start: start, End: end, Text: text})
		parts = append(parts, text)
	}

	return segments, strings.Join(parts, " "), nil
}
