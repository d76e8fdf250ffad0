package asr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrFFmpegNotFound is returned when the ffmpeg binary is not on PATH.
	ErrFFmpegNotFound = errors.New("ffmpeg not found: please install ffmpeg to convert audio files")
	// ErrFFprobeNotFound is returned when the ffprobe binary is not on PATH.
	ErrFFprobeNotFound = errors.New("ffprobe not found: please install ffmpeg")
)

// Tools locates the external media binaries. Zero values fall back to
// "ffmpeg" and "ffprobe" resolved through PATH.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// DefaultTools returns the PATH-resolved ffmpeg/ffprobe pair.
func DefaultTools() Tools {
	return Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}
}

func (t Tools) ffmpeg() (string, error) {
	name := t.FFmpeg
	if name == "" {
		name = "ffmpeg"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", ErrFFmpegNotFound
	}
	return path, nil
}

func (t Tools) ffprobe() (string, error) {
	name := t.FFprobe
	if name == "" {
		name = "ffprobe"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", ErrFFprobeNotFound
	}
	return path, nil
}

// ConvertToWav converts an audio file to WAV format (16kHz, mono).
// The output file is overwritten if it exists.
func (t Tools) ConvertToWav(ctx context.Context, inputPath, outputPath string) error {
	bin, err := t.ffmpeg()
	if err != nil {
		return err
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	cmd := exec.CommandContext(ctx, bin,
		"-y",
		"-i", inputPath,
		"-ar", strconv.Itoa(SampleRate),
		"-ac", "1",
		"-f", "wav",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, strings.TrimSpace(string(output)))
	}

	return nil
}

// DecodePCM decodes any container ffmpeg understands into mono float32
// samples at the given rate, without writing an intermediate file.
func (t Tools) DecodePCM(ctx context.Context, inputPath string, sampleRate int) ([]float32, error) {
	bin, err := t.ffmpeg()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin,
		"-i", inputPath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w\nOutput: %s", err, strings.TrimSpace(stderr.String()))
	}

	return bytesToFloat32(raw), nil
}

// ProbeDuration returns the duration of a media file in seconds.
func (t Tools) ProbeDuration(ctx context.Context, inputPath string) (float64, error) {
	bin, err := t.ffprobe()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to get audio duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}
