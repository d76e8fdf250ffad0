package transcription

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swaraj/internal/asr"

	"github.com/stretchr/testify/require"
)

type fakeCTC struct {
	hyps     []asr.Hypothesis
	err      error
	gotPaths []string
	gotDec   asr.Decoder
	sawFile  bool
}

func (f *fakeCTC) Language() string { return "hi" }
func (f *fakeCTC) Close() error     { return nil }

func (f *fakeCTC) RecognizeFiles(paths []string, decoder asr.Decoder) ([]asr.Hypothesis, error) {
	f.gotPaths = paths
	f.gotDec = decoder
	if len(paths) > 0 {
		_, err := os.Stat(paths[0])
		f.sawFile = err == nil
	}
	return f.hyps, f.err
}

type fakeTools struct {
	convertErr error
	duration   float64
	probeErr   error
}

func (f *fakeTools) ConvertToWav(_ context.Context, _, outputPath string) error {
	if f.convertErr != nil {
		// ffmpeg may leave a partial file behind before failing.
		_ = os.WriteFile(outputPath, []byte("partial"), 0o644)
		return f.convertErr
	}
	return os.WriteFile(outputPath, []byte("RIFF"), 0o644)
}

func (f *fakeTools) ProbeDuration(context.Context, string) (float64, error) {
	return f.duration, f.probeErr
}

func uploadFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.webm")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	return path
}

func TestConformerBackendTranscribe(t *testing.T) {
	t.Parallel()

	model := &fakeCTC{hyps: []asr.Hypothesis{{Text: "नमस्ते दुनिया"}, {Text: "ignored"}}}
	backend := NewConformerBackend(model, &fakeTools{duration: 2.3456}, nil)
	input := uploadFile(t)

	result, err := backend.Transcribe(context.Background(), input, Options{Language: "hi"})
	require.NoError(t, err)
	require.Equal(t, "नमस्ते दुनिया", result.Text)
	require.Equal(t, 2.35, result.Duration)
	require.Nil(t, result.Segments)

	require.Equal(t, []string{input + ".wav"}, model.gotPaths)
	require.Equal(t, asr.DecoderCTC, model.gotDec)
	require.True(t, model.sawFile)
	require.NoFileExists(t, input+".wav")
	require.False(t, backend.Segmented())
}

func TestConformerBackendPassesDecoderPerCall(t *testing.T) {
	t.Parallel()

	model := &fakeCTC{hyps: []asr.Hypothesis{{Text: "x"}}}
	backend := NewConformerBackend(model, &fakeTools{}, nil)

	_, err := backend.Transcribe(context.Background(), uploadFile(t), Options{Decoder: asr.DecoderRNNT})
	require.NoError(t, err)
	require.Equal(t, asr.DecoderRNNT, model.gotDec)

	_, err = backend.Transcribe(context.Background(), uploadFile(t), Options{})
	require.NoError(t, err)
	require.Equal(t, asr.DecoderCTC, model.gotDec)
}

func TestConformerBackendProbeFailureFallsBackToZero(t *testing.T) {
	t.Parallel()

	backend := NewConformerBackend(&fakeCTC{hyps: []asr.Hypothesis{{Text: "x"}}}, &fakeTools{probeErr: asr.ErrFFprobeNotFound}, nil)

	result, err := backend.Transcribe(context.Background(), uploadFile(t), Options{})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Duration)
}

func TestConformerBackendEmptyBatch(t *testing.T) {
	t.Parallel()

	backend := NewConformerBackend(&fakeCTC{}, &fakeTools{duration: 1}, nil)

	result, err := backend.Transcribe(context.Background(), uploadFile(t), Options{})
	require.NoError(t, err)
	require.Empty(t, result.Text)
}

func TestConformerBackendConversionFailureCleansUp(t *testing.T) {
	t.Parallel()

	model := &fakeCTC{}
	backend := NewConformerBackend(model, &fakeTools{convertErr: errors.New("ffmpeg conversion failed: exit status 1")}, nil)
	input := uploadFile(t)

	_, err := backend.Transcribe(context.Background(), input, Options{})
	require.ErrorContains(t, err, "convert upload")
	require.NoFileExists(t, input+".wav")
	require.Nil(t, model.gotPaths, "model must not run on a failed conversion")
}

func TestConformerBackendRecognizeFailureCleansUp(t *testing.T) {
	t.Parallel()

	backend := NewConformerBackend(&fakeCTC{err: asr.ErrDecoderUnavailable}, &fakeTools{}, nil)
	input := uploadFile(t)

	_, err := backend.Transcribe(context.Background(), input, Options{Decoder: asr.DecoderRNNT})
	require.ErrorIs(t, err, asr.ErrDecoderUnavailable)
	require.NoFileExists(t, input+".wav")
}

func TestBackendsRejectOtherLanguages(t *testing.T) {
	t.Parallel()

	_, err := NewConformerBackend(&fakeCTC{}, &fakeTools{}, nil).Transcribe(context.Background(), uploadFile(t), Options{Language: "ta"})
	require.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = NewWhisperBackend(&fakeSegments{}, nil).Transcribe(context.Background(), uploadFile(t), Options{Language: "en"})
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

type fakeSegments struct {
	segments []asr.Segment
	failAt   int // index at which the sequence yields an error, -1 for never
	info     asr.Info
	err      error
	consumed int
}

func (f *fakeSegments) Language() string { return "hi" }
func (f *fakeSegments) Close() error     { return nil }

func (f *fakeSegments) Transcribe(context.Context, string) (iter.Seq2[asr.Segment, error], asr.Info, error) {
	if f.err != nil {
		return nil, asr.Info{}, f.err
	}
	return func(yield func(asr.Segment, error) bool) {
		for i, seg := range f.segments {
			if i == f.failAt {
				yield(asr.Segment{}, errors.New("decode failed"))
				return
			}
			f.consumed++
			if !yield(seg, nil) {
				return
			}
		}
	}, f.info, nil
}

func TestWhisperBackendTranscribe(t *testing.T) {
	t.Parallel()

	model := &fakeSegments{
		failAt: -1,
		info:   asr.Info{Duration: 7.3333},
		segments: []asr.Segment{
			{Start: 0.004, End: 2.456, Text: " मेरा नाम "},
			{Start: 2.5, End: 2.9, Text: "   "},
			{Start: 3.111, End: 6.999, Text: "राज है।\n"},
		},
	}
	backend := NewWhisperBackend(model, nil)

	result, err := backend.Transcribe(context.Background(), uploadFile(t), Options{Language: "hi"})
	require.NoError(t, err)
	require.Equal(t, 3, model.consumed, "sequence must be consumed fully")
	require.Equal(t, 7.33, result.Duration)
	require.Equal(t, "मेरा नाम राज है।", result.Text)
	require.Equal(t, []Segment{
		{Start: 0, End: 2.46, Text: "मेरा नाम"},
		{Start: 3.11, End: 7, Text: "राज है।"},
	}, result.Segments)
	require.True(t, backend.Segmented())
}

func TestWhisperBackendSegmentsJoinToText(t *testing.T) {
	t.Parallel()

	var segs []asr.Segment
	for i := range 20 {
		segs = append(segs, asr.Segment{Start: float64(i), End: float64(i) + 0.5, Text: strings.Repeat(" शब्द", i%3)})
	}
	result, err := NewWhisperBackend(&fakeSegments{failAt: -1, segments: segs}, nil).
		Transcribe(context.Background(), uploadFile(t), Options{})
	require.NoError(t, err)
	// every third segment is blank and dropped
	require.Len(t, result.Segments, 13)

	var parts []string
	prev := -1.0
	for _, s := range result.Segments {
		parts = append(parts, s.Text)
		require.LessOrEqual(t, s.Start, s.End)
		require.GreaterOrEqual(t, s.Start, prev)
		prev = s.Start
	}
	require.Equal(t, result.Text, strings.Join(parts, " "))
}

func TestWhisperBackendNoSpeech(t *testing.T) {
	t.Parallel()

	result, err := NewWhisperBackend(&fakeSegments{failAt: -1, info: asr.Info{Duration: 1}}, nil).
		Transcribe(context.Background(), uploadFile(t), Options{})
	require.NoError(t, err)
	require.Empty(t, result.Text)
	require.NotNil(t, result.Segments)
	require.Empty(t, result.Segments)
}

func TestWhisperBackendErrors(t *testing.T) {
	t.Parallel()

	_, err := NewWhisperBackend(&fakeSegments{err: asr.ErrFFmpegNotFound}, nil).
		Transcribe(context.Background(), uploadFile(t), Options{})
	require.ErrorIs(t, err, asr.ErrFFmpegNotFound)

	_, err = NewWhisperBackend(&fakeSegments{failAt: 1, segments: []asr.Segment{{Text: "a"}, {Text: "b"}}}, nil).
		Transcribe(context.Background(), uploadFile(t), Options{})
	require.ErrorContains(t, err, "decode failed")
}

func TestResultFormatAsSRT(t *testing.T) {
	t.Parallel()

	segmented := &Result{Segments: []Segment{
		{Start: 0, End: 1.5, Text: "एक"},
		{Start: 61.25, End: 3725.001, Text: "दो"},
	}}
	require.Equal(t,
		"1\n00:00:00,000 --> 00:00:01,500\nएक\n\n2\n00:01:01,250 --> 01:02:05,001\nदो\n",
		segmented.FormatAsSRT())

	flat := &Result{Text: "पूरा पाठ", Duration: 2.5}
	require.Equal(t, "1\n00:00:00,000 --> 00:00:02,500\nपूरा पाठ\n", flat.FormatAsSRT())
}

func TestRound2(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1.23, round2(1.2345))
	require.Equal(t, 1.24, round2(1.235000001))
	require.Equal(t, 0.0, round2(0.004))
}
