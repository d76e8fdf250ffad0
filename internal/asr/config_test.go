package asr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
}

func TestNewConformerConfigCTCOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "model.onnx", "model.int8.onnx", "tokens.txt")

	config, err := NewConformerConfig(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "model.int8.onnx"), config.CTCModel)
	require.False(t, config.HasTransducer())
	require.NoError(t, config.Validate())
}

func TestNewConformerConfigHybrid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "model.onnx", "tokens.txt", "encoder.int8.onnx", "decoder.onnx", "joiner.onnx")

	config, err := NewConformerConfig(dir)
	require.NoError(t, err)
	require.True(t, config.HasTransducer())
	require.Equal(t, filepath.Join(dir, "encoder.int8.onnx"), config.EncoderPath)
}

func TestNewConformerConfigMissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewConformerConfig(dir)
	require.ErrorContains(t, err, "CTC model not found")

	touch(t, dir, "model.onnx")
	_, err = NewConformerConfig(dir)
	require.ErrorContains(t, err, "tokens.txt not found")
}

func TestConformerConfigValidate(t *testing.T) {
	t.Parallel()

	config := &ConformerConfig{CTCModel: "/nonexistent/model.onnx", TokensPath: "/nonexistent/tokens.txt"}
	require.Error(t, config.Validate())
}
