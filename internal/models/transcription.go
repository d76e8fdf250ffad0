package models

import "swaraj/internal/transcription"

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// VersionResponse is the body of GET /version
type VersionResponse struct {
	Version string `json:"version"`
	Backend string `json:"backend"`
}

// SegmentResponse is one timed segment in a transcription
type SegmentResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResponse is the body of POST /transcribe.
// Segments is nil for unsegmented backends and omitted from the JSON;
// segmented backends always send the array, even when empty.
type TranscriptionResponse struct {
	Text     string             `json:"text"`
	Segments *[]SegmentResponse `json:"segments,omitempty"`
	Duration float64            `json:"duration"`
}

// ErrorResponse is the body of client errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewTranscriptionResponse shapes a result for the wire.
func NewTranscriptionResponse(result *transcription.Result, segmented bool) TranscriptionResponse {
	resp := TranscriptionResponse{
		Text:     result.Text,
		Duration: result.Duration,
	}
	if segmented {
		segments := make([]SegmentResponse, 0, len(result.Segments))
		for _, s := range result.Segments {
			segments = append(segments, SegmentResponse{Start: s.Start, End: s.End, Text: s.Text})
		}
		resp.Segments = &segments
	}
	return resp
}
