package transcription

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Segment is a timed span of recognized speech, times in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result represents the complete transcription of one file
type Result struct {
	Text     string    `json:"text"`               // full transcription text
	Segments []Segment `json:"segments,omitempty"` // timed segments, segmented backends only
	Duration float64   `json:"duration"`           // audio duration in seconds
}

// FormatAsText returns the transcription as plain text
func (r *Result) FormatAsText() string {
	return r.Text
}

// FormatAsJSON returns the transcription as formatted JSON
func (r *Result) FormatAsJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// FormatAsSRT returns the transcription as SRT subtitle format.
// Unsegmented results become a single cue spanning the whole audio.
func (r *Result) FormatAsSRT() string {
	if len(r.Segments) == 0 {
		return formatSRTSegment(1, 0, r.Duration, r.Text)
	}

	var srt strings.Builder
	for i, seg := range r.Segments {
		if i > 0 {
			srt.WriteString("\n")
		}
		srt.WriteString(formatSRTSegment(i+1, seg.Start, seg.End, seg.Text))
	}
	return srt.String()
}

// formatSRTSegment formats a single SRT subtitle entry
func formatSRTSegment(index int, startSec, endSec float64, text string) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n",
		index,
		formatSRTTime(startSec),
		formatSRTTime(endSec),
		text,
	)
}

// formatSRTTime converts seconds to SRT time format (HH:MM:SS,mmm)
func formatSRTTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
