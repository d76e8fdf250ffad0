package asr

import (
	"context"
	"fmt"
	"iter"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// WhisperRecognizer wraps Whisper model for speech recognition, optionally
// gated by Silero VAD so that only speech regions are decoded.
type WhisperRecognizer struct {
	recognizer *sherpa.OfflineRecognizer
	config     *WhisperConfig
	vadConfig  *VADConfig // nil disables VAD filtering
	tools      Tools
}

// NewWhisperRecognizer creates a new Whisper recognizer. The model always
// runs on CPU.
func NewWhisperRecognizer(config *WhisperConfig, vadConfig *VADConfig, tools Tools) (*WhisperRecognizer, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	encoderPath, decoderPath, tokensPath := findWhisperFiles(config.ModelDir)

	if encoderPath == "" {
		return nil, fmt.Errorf("encoder model not found in %s", config.ModelDir)
	}
	if decoderPath == "" {
		return nil, fmt.Errorf("decoder model not found in %s", config.ModelDir)
	}
	if tokensPath == "" {
		return nil, fmt.Errorf("tokens file not found in %s", config.ModelDir)
	}

	if vadConfig != nil {
		// Fail at load time rather than on the first request.
		vad, err := newVAD(vadConfig, config.SampleRate)
		if err != nil {
			return nil, err
		}
		sherpa.DeleteVoiceActivityDetector(vad)
	}

	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: config.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  encoderPath,
				Decoder:  decoderPath,
				Language: config.Language,
				Task:     config.Task,
			},
			Tokens:     tokensPath,
			NumThreads: config.NumThreads,
			Provider:   "cpu",
			Debug:      0,
		},
		DecodingMethod: "greedy_search",
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if recognizer == nil {
		return nil, fmt.Errorf("failed to create Whisper recognizer")
	}

	return &WhisperRecognizer{
		recognizer: recognizer,
		config:     config,
		vadConfig:  vadConfig,
		tools:      tools,
	}, nil
}

// whisperPrefixes are the size prefixes sherpa-onnx release archives put on
// their file names ("tiny-encoder.int8.onnx"); "" matches unprefixed exports.
var whisperPrefixes = []string{"", "tiny-", "base-", "small-", "medium-", "large-v3-", "turbo-"}

// findWhisperFiles locates the encoder, decoder and tokens files in dir,
// preferring int8 quantized models. Missing files are returned as "".
func findWhisperFiles(dir string) (encoder, decoder, tokens string) {
	var encoders, decoders, tokenFiles []string
	for _, prefix := range whisperPrefixes {
		encoders = append(encoders, prefix+"encoder.int8.onnx", prefix+"encoder.onnx")
		decoders = append(decoders, prefix+"decoder.int8.onnx", prefix+"decoder.onnx")
		tokenFiles = append(tokenFiles, prefix+"tokens.txt")
	}
	return findModelFile(dir, encoders), findModelFile(dir, decoders), findModelFile(dir, tokenFiles)
}

// Language returns the language the decoder is pinned to.
func (r *WhisperRecognizer) Language() string {
	return r.config.Language
}

// Transcribe decodes the file to PCM up front and returns the segments as a
// lazy sequence: nothing is recognized until the caller ranges over it.
// Iteration stops with ctx's error if ctx is cancelled between segments.
func (r *WhisperRecognizer) Transcribe(ctx context.Context, inputPath string) (iter.Seq2[Segment, error], Info, error) {
	samples, err := r.tools.DecodePCM(ctx, inputPath, r.config.SampleRate)
	if err != nil {
		return nil, Info{}, err
	}

	info := Info{
		Duration: float64(len(samples)) / float64(r.config.SampleRate),
		Language: r.config.Language,
	}

	maxWindow := r.config.SampleRate * r.config.ChunkSec

	segments := func(yield func(Segment, error) bool) {
		emit := func(region window) bool {
			for _, w := range splitWindows(region.samples, region.offset, maxWindow) {
				if err := ctx.Err(); err != nil {
					yield(Segment{}, err)
					return false
				}
				if !yield(r.decodeWindow(w), nil) {
					return false
				}
			}
			return true
		}

		if r.vadConfig == nil {
			emit(window{offset: 0, samples: samples})
			return
		}

		vad, err := newVAD(r.vadConfig, r.config.SampleRate)
		if err != nil {
			yield(Segment{}, err)
			return
		}
		defer sherpa.DeleteVoiceActivityDetector(vad)

		for region := range speechRegions(vad, samples, r.vadConfig.WindowSize) {
			if !emit(region) {
				return
			}
		}
	}

	return segments, info, nil
}

// decodeWindow runs one window through Whisper. The returned text is raw;
// callers trim it.
func (r *WhisperRecognizer) decodeWindow(w window) Segment {
	rate := float64(r.config.SampleRate)
	seg := Segment{
		Start: float64(w.offset) / rate,
		End:   float64(w.offset+len(w.samples)) / rate,
	}
	if len(w.samples) == 0 {
		return seg
	}

	stream := sherpa.NewOfflineStream(r.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(r.config.SampleRate, w.samples)
	r.recognizer.Decode(stream)

	if result := stream.GetResult(); result != nil {
		seg.Text = result.Text
	}
	return seg
}

// Close releases the recognizer resources
func (r *WhisperRecognizer) Close() error {
	if r.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(r.recognizer)
		r.recognizer = nil
	}
	return nil
}
