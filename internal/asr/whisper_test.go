package asr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swaraj/internal/modelhub"

	"github.com/stretchr/testify/require"
)

func TestFindWhisperFilesForEveryRegisteredModel(t *testing.T) {
	t.Parallel()

	for _, name := range modelhub.Names() {
		if !strings.HasPrefix(name, "whisper-") {
			continue
		}
		m, ok := modelhub.Lookup(name)
		require.True(t, ok)
		size := strings.TrimPrefix(m.Dir, "sherpa-onnx-whisper-")

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// Layout of the sherpa-onnx release archive.
			dir := filepath.Join(t.TempDir(), m.Dir)
			require.NoError(t, os.MkdirAll(dir, 0o755))
			for _, f := range []string{
				size + "-encoder.int8.onnx",
				size + "-encoder.onnx",
				size + "-decoder.int8.onnx",
				size + "-decoder.onnx",
				size + "-tokens.txt",
			} {
				require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
			}

			encoder, decoder, tokens := findWhisperFiles(dir)
			require.Equal(t, filepath.Join(dir, size+"-encoder.int8.onnx"), encoder)
			require.Equal(t, filepath.Join(dir, size+"-decoder.int8.onnx"), decoder)
			require.Equal(t, filepath.Join(dir, size+"-tokens.txt"), tokens)
		})
	}
}

func TestFindWhisperFilesUnprefixedExport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, f := range []string{"encoder.onnx", "decoder.onnx", "tokens.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}

	encoder, decoder, tokens := findWhisperFiles(dir)
	require.Equal(t, filepath.Join(dir, "encoder.onnx"), encoder)
	require.Equal(t, filepath.Join(dir, "decoder.onnx"), decoder)
	require.Equal(t, filepath.Join(dir, "tokens.txt"), tokens)

	encoder, _, _ = findWhisperFiles(t.TempDir())
	require.Empty(t, encoder)
}
