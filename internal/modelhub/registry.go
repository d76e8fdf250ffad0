// Package modelhub maps model names to local directories under the model
// directory, fetching published archives on request.
package modelhub

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const releaseBase = "https://github.com/k2-fsa/sherpa-onnx/releases/download/asr-models/"

// Model is a registered checkpoint.
type Model struct {
	Name    string
	Dir     string // directory (or single file) name under the model dir
	URL     string // empty when the model has to be exported locally
	Archive bool   // URL points at a .tar.bz2 that unpacks into Dir
	Hint    string // shown when the model is missing and cannot be fetched
}

// Resolved is a model reference turned into a local path.
type Resolved struct {
	Model
	Path          string
	NeedsDownload bool
	IsCustomPath  bool
}

var registry = map[string]Model{
	"ai4bharat/indicconformer_stt_hi_hybrid_ctc_rnnt_large": {
		Name: "ai4bharat/indicconformer_stt_hi_hybrid_ctc_rnnt_large",
		Dir:  "indicconformer_stt_hi_hybrid_ctc_rnnt_large",
		Hint: "export the NeMo checkpoint to ONNX (CTC head as model.onnx, optional RNNT head as encoder/decoder/joiner.onnx) and place it with tokens.txt in this directory",
	},
	"whisper-tiny":   whisper("tiny"),
	"whisper-base":   whisper("base"),
	"whisper-small":  whisper("small"),
	"whisper-medium": whisper("medium"),
	"whisper-turbo":  whisper("turbo"),
	"silero_vad": {
		Name: "silero_vad",
		Dir:  "silero_vad.onnx",
		URL:  releaseBase + "silero_vad.onnx",
	},
}

func whisper(size string) Model {
	dir := "sherpa-onnx-whisper-" + size
	return Model{
		Name:    "whisper-" + size,
		Dir:     dir,
		URL:     releaseBase + dir + ".tar.bz2",
		Archive: true,
	}
}

// Names lists the registered model names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registered model called name.
func Lookup(name string) (Model, bool) {
	m, ok := registry[name]
	return m, ok
}

// Resolve turns a model name or path into a local path. Registered names
// resolve under modelDir whether or not they exist yet; anything else must
// already exist, either as a path or as a directory under modelDir.
func Resolve(ref, modelDir string) (Resolved, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolved{}, errors.New("model name must not be empty")
	}

	if m, ok := Lookup(ref); ok {
		if strings.TrimSpace(modelDir) == "" {
			return Resolved{}, errors.New("model directory must not be empty for named model")
		}
		path := filepath.Join(modelDir, m.Dir)
		_, err := os.Stat(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Resolved{}, fmt.Errorf("stat model path: %w", err)
		}
		return Resolved{Model: m, Path: path, NeedsDownload: err != nil}, nil
	}

	candidates := []string{filepath.Clean(ref)}
	if !filepath.IsAbs(ref) && modelDir != "" {
		candidates = append(candidates, filepath.Join(modelDir, ref))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Resolved{Model: Model{Name: ref}, Path: path, IsCustomPath: true}, nil
		}
	}

	return Resolved{}, fmt.Errorf("unknown model %q (known models: %s)", ref, strings.Join(Names(), ", "))
}
