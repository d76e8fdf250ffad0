package asr

import (
	"fmt"
	"iter"
	"os"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// newVAD creates a Silero voice activity detector for one pass over a file.
// The caller owns the detector and must delete it.
func newVAD(config *VADConfig, sampleRate int) (*sherpa.VoiceActivityDetector, error) {
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("VAD model not found: %s", config.ModelPath)
	}

	vadModelConfig := sherpa.VadModelConfig{
		SileroVad: sherpa.SileroVadModelConfig{
			Model:              config.ModelPath,
			Threshold:          config.Threshold,
			MinSilenceDuration: config.MinSilenceDuration,
			MinSpeechDuration:  config.MinSpeechDuration,
			WindowSize:         config.WindowSize,
		},
		SampleRate: sampleRate,
		NumThreads: 1,
		Debug:      0,
	}

	vad := sherpa.NewVoiceActivityDetector(&vadModelConfig, 30) // 30 seconds buffer
	if vad == nil {
		return nil, fmt.Errorf("failed to create VAD")
	}
	return vad, nil
}

// speechRegions feeds samples through the detector window by window and
// yields each detected speech region as soon as it is closed. Regions come
// out in chronological order.
func speechRegions(vad *sherpa.VoiceActivityDetector, samples []float32, windowSize int) iter.Seq[window] {
	return func(yield func(window) bool) {
		drain := func() bool {
			for !vad.IsEmpty() {
				segment := vad.Front()
				vad.Pop()
				if !yield(window{offset: segment.Start, samples: segment.Samples}) {
					return false
				}
			}
			return true
		}

		for start := 0; start < len(samples); start += windowSize {
			end := min(start+windowSize, len(samples))
			vad.AcceptWaveform(samples[start:end])
			if !drain() {
				return
			}
		}

		vad.Flush()
		drain()
	}
}
