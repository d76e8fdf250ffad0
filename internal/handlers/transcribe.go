package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"swaraj/internal/asr"
	"swaraj/internal/logging"
	"swaraj/internal/models"
	"swaraj/internal/transcription"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Transcriber is the loaded model as the HTTP layer sees it.
type Transcriber interface {
	ModelStatus
	Segmented() bool
	Transcribe(ctx context.Context, audioPath string, opts transcription.Options) (*transcription.Result, error)
}

// TranscribeOptions configures a TranscribeHandler
type TranscribeOptions struct {
	TempDir  string // empty uses the OS temp dir
	Language string // language hint used when the request sends none
}

// TranscribeHandler handles audio uploads
type TranscribeHandler struct {
	transcriber Transcriber
	opts        TranscribeOptions
	logger      *zap.Logger
}

// NewTranscribeHandler creates a new TranscribeHandler
func NewTranscribeHandler(transcriber Transcriber, opts TranscribeOptions, logger *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		transcriber: transcriber,
		opts:        opts,
		logger:      logging.OrNop(logger).Named("transcribe"),
	}
}

// Transcribe stores the upload in a temp file, runs the model on it and
// removes every temp file before returning, whatever the outcome.
// POST /transcribe
func (h *TranscribeHandler) Transcribe(c echo.Context) error {
	if !h.transcriber.Loaded() {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "model not loaded"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "file field is required"})
	}

	decoder, err := asr.ParseDecoder(c.FormValue("decoder"))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error()})
	}

	language := c.FormValue("language")
	if language == "" {
		language = h.opts.Language
	}

	log := h.logger.With(
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("filename", fh.Filename),
		zap.Int64("size", fh.Size),
	)

	path, err := saveUpload(fh, h.opts.TempDir)
	if err != nil {
		log.Error("failed to store upload", zap.Error(err))
		return err
	}
	defer func() {
		// The conformer backend converts next to the upload; sweep that too.
		if err := removeTemp(path, path+".wav"); err != nil {
			log.Warn("failed to remove temp files", zap.Error(err))
		}
	}()

	started := time.Now()
	result, err := h.transcriber.Transcribe(c.Request().Context(), path, transcription.Options{
		Language: language,
		Decoder:  decoder,
	})
	switch {
	case errors.Is(err, transcription.ErrUnsupportedLanguage), errors.Is(err, asr.ErrDecoderUnavailable):
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error()})
	case err != nil:
		log.Error("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return err
	}

	log.Info("transcription finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Float64("audio_duration", result.Duration),
		zap.Int("chars", len([]rune(result.Text))),
	)

	return c.JSON(http.StatusOK, models.NewTranscriptionResponse(result, h.transcriber.Segmented()))
}
