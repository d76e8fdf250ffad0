package asr

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConformerConfig holds the configuration for a hybrid CTC/RNNT conformer
// exported to ONNX. The CTC head is required; the transducer head is
// optional and enables the "rnnt" decoder.
type ConformerConfig struct {
	ModelDir    string // Base directory for the model
	CTCModel    string // Path to model.onnx or model.int8.onnx (CTC head)
	EncoderPath string // Transducer encoder, empty when not exported
	DecoderPath string // Transducer decoder
	JoinerPath  string // Transducer joiner
	TokensPath  string // Path to tokens.txt
	Language    string // Language the checkpoint was trained for
	Provider    string // cpu or cuda
	NumThreads  int
	SampleRate  int
}

// NewConformerConfig creates a configuration from a model directory,
// detecting the exported files (int8 quantized versions preferred).
func NewConformerConfig(modelDir string) (*ConformerConfig, error) {
	config := &ConformerConfig{
		ModelDir:   modelDir,
		Language:   "hi",
		Provider:   "cpu",
		NumThreads: 4,
		SampleRate: SampleRate,
	}

	config.CTCModel = findModelFile(modelDir, []string{
		"model.int8.onnx",
		"model.onnx",
		"ctc-model.int8.onnx",
		"ctc-model.onnx",
	})
	if config.CTCModel == "" {
		return nil, fmt.Errorf("CTC model not found in %s", modelDir)
	}

	config.TokensPath = findModelFile(modelDir, []string{"tokens.txt"})
	if config.TokensPath == "" {
		return nil, fmt.Errorf("tokens.txt not found in %s", modelDir)
	}

	// The transducer head is only usable when all three parts are present.
	encoder := findModelFile(modelDir, []string{"encoder.int8.onnx", "encoder.onnx"})
	decoder := findModelFile(modelDir, []string{"decoder.int8.onnx", "decoder.onnx"})
	joiner := findModelFile(modelDir, []string{"joiner.int8.onnx", "joiner.onnx"})
	if encoder != "" && decoder != "" && joiner != "" {
		config.EncoderPath = encoder
		config.DecoderPath = decoder
		config.JoinerPath = joiner
	}

	return config, nil
}

// HasTransducer reports whether the RNNT head was exported alongside CTC.
func (c *ConformerConfig) HasTransducer() bool {
	return c.EncoderPath != "" && c.DecoderPath != "" && c.JoinerPath != ""
}

// Validate checks if all required model files exist
func (c *ConformerConfig) Validate() error {
	files := map[string]string{
		"ctc model": c.CTCModel,
		"tokens":    c.TokensPath,
	}
	if c.HasTransducer() {
		files["encoder"] = c.EncoderPath
		files["decoder"] = c.DecoderPath
		files["joiner"] = c.JoinerPath
	}

	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", name, path)
		}
	}

	return nil
}

// WhisperConfig holds configuration for Whisper model
type WhisperConfig struct {
	ModelDir   string
	Language   string // hi, en, ja, etc.
	Task       string // transcribe or translate
	NumThreads int
	SampleRate int
	ChunkSec   int // window length when VAD is disabled, and the cap per VAD region
}

// DefaultWhisperConfig returns default Whisper configuration for Hindi
func DefaultWhisperConfig(modelDir string) *WhisperConfig {
	return &WhisperConfig{
		ModelDir:   modelDir,
		Language:   "hi",
		Task:       "transcribe",
		NumThreads: 4,
		SampleRate: SampleRate,
		ChunkSec:   30, // Whisper supports up to 30 seconds natively
	}
}

// VADConfig holds configuration for Voice Activity Detection
type VADConfig struct {
	ModelPath          string  // Path to silero_vad.onnx
	Threshold          float32 // Speech detection threshold (0-1, default 0.5)
	MinSpeechDuration  float32 // Minimum speech duration in seconds (default 0.25)
	MinSilenceDuration float32 // Minimum silence duration to split (default 0.5)
	WindowSize         int     // Samples per VAD step (512 for silero at 16kHz)
}

// DefaultVADConfig returns default VAD configuration
func DefaultVADConfig(modelPath string) *VADConfig {
	return &VADConfig{
		ModelPath:          modelPath,
		Threshold:          0.5,
		MinSpeechDuration:  0.25,
		MinSilenceDuration: 0.5,
		WindowSize:         512,
	}
}

// findModelFile searches for a model file in the given directory
// Returns the first matching file path or empty string if not found
func findModelFile(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
