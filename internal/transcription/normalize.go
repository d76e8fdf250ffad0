package transcription

import "swaraj/internal/asr"

// firstText picks the transcript of a single-file batch. An empty batch
// means the model produced nothing for the file, which is not an error.
func firstText(hyps []asr.Hypothesis) string {
	if len(hyps) == 0 {
		return ""
	}
	return hyps[0].Text
}
