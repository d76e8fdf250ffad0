package asr

import (
	"errors"
	"fmt"
	"os"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// ErrDecoderUnavailable is returned when a request asks for a decoding head
// the loaded checkpoint does not provide.
var ErrDecoderUnavailable = errors.New("decoder not available for this model")

// ConformerRecognizer runs a hybrid CTC/RNNT conformer through Sherpa-ONNX.
// Each decoding head is a separate offline recognizer; the head is chosen
// per call, so the recognizer itself is never mutated after construction.
type ConformerRecognizer struct {
	config *ConformerConfig
	heads  map[Decoder]*sherpa.OfflineRecognizer
}

// NewConformerRecognizer loads the CTC head, and the transducer head when exported.
func NewConformerRecognizer(config *ConformerConfig) (*ConformerRecognizer, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &ConformerRecognizer{
		config: config,
		heads:  make(map[Decoder]*sherpa.OfflineRecognizer, 2),
	}

	ctc := sherpa.NewOfflineRecognizer(r.sherpaConfig(sherpa.OfflineModelConfig{
		NemoCTC: sherpa.OfflineNemoEncDecCtcModelConfig{
			Model: config.CTCModel,
		},
	}))
	if ctc == nil {
		return nil, fmt.Errorf("failed to create CTC recognizer")
	}
	r.heads[DecoderCTC] = ctc

	if config.HasTransducer() {
		rnnt := sherpa.NewOfflineRecognizer(r.sherpaConfig(sherpa.OfflineModelConfig{
			Transducer: sherpa.OfflineTransducerModelConfig{
				Encoder: config.EncoderPath,
				Decoder: config.DecoderPath,
				Joiner:  config.JoinerPath,
			},
			ModelType: "nemo_transducer",
		}))
		if rnnt == nil {
			r.Close()
			return nil, fmt.Errorf("failed to create transducer recognizer")
		}
		r.heads[DecoderRNNT] = rnnt
	}

	return r, nil
}

func (r *ConformerRecognizer) sherpaConfig(model sherpa.OfflineModelConfig) *sherpa.OfflineRecognizerConfig {
	model.Tokens = r.config.TokensPath
	model.NumThreads = r.config.NumThreads
	model.Provider = r.config.Provider
	model.Debug = 0

	return &sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: r.config.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig:    model,
		DecodingMethod: "greedy_search",
	}
}

// Language returns the language the checkpoint was trained for.
func (r *ConformerRecognizer) Language() string {
	return r.config.Language
}

// Decoders lists the decoding heads this recognizer can serve.
func (r *ConformerRecognizer) Decoders() []Decoder {
	decoders := []Decoder{DecoderCTC}
	if _, ok := r.heads[DecoderRNNT]; ok {
		decoders = append(decoders, DecoderRNNT)
	}
	return decoders
}

// RecognizeFiles decodes a batch of 16kHz mono WAV files with the given head.
// The returned hypotheses are in input order.
func (r *ConformerRecognizer) RecognizeFiles(paths []string, decoder Decoder) ([]Hypothesis, error) {
	head, ok := r.heads[decoder]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDecoderUnavailable, decoder)
	}

	streams := make([]*sherpa.OfflineStream, 0, len(paths))
	defer func() {
		for _, s := range streams {
			sherpa.DeleteOfflineStream(s)
		}
	}()

	for _, path := range paths {
		samples, err := readWavFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		stream := sherpa.NewOfflineStream(head)
		stream.AcceptWaveform(r.config.SampleRate, samples)
		streams = append(streams, stream)
	}

	if len(streams) == 0 {
		return nil, nil
	}
	head.DecodeStreams(streams)

	hyps := make([]Hypothesis, 0, len(streams))
	for _, s := range streams {
		result := s.GetResult()
		if result == nil {
			hyps = append(hyps, Hypothesis{})
			continue
		}
		hyps = append(hyps, Hypothesis{
			Text:       result.Text,
			Tokens:     result.Tokens,
			Timestamps: result.Timestamps,
		})
	}
	return hyps, nil
}

// Close releases resources used by the recognizer
func (r *ConformerRecognizer) Close() error {
	for decoder, head := range r.heads {
		sherpa.DeleteOfflineRecognizer(head)
		delete(r.heads, decoder)
	}
	return nil
}

// readWavFile reads a WAV file and returns the audio samples
func readWavFile(path string) ([]float32, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	// Use sherpa-onnx's built-in WAV reader
	wave := sherpa.ReadWave(path)
	if wave == nil || len(wave.Samples) == 0 {
		return nil, fmt.Errorf("failed to read WAV file or file is empty")
	}

	return wave.Samples, nil
}
