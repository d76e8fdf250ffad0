package cli

import (
	"context"
	"fmt"

	"swaraj/internal/asr"
	"swaraj/internal/config"
	"swaraj/internal/modelhub"
	"swaraj/internal/transcription"

	"go.uber.org/zap"
)

// loadBackend resolves (and optionally downloads) the configured model and
// builds the matching backend.
func (a *appState) loadBackend(ctx context.Context, cfg *config.Config) (transcription.Backend, error) {
	switch cfg.Backend {
	case transcription.BackendConformer:
		return a.loadConformer(ctx, cfg)
	case transcription.BackendWhisper:
		return a.loadWhisper(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (a *appState) loadConformer(ctx context.Context, cfg *config.Config) (transcription.Backend, error) {
	dir, err := modelhub.Ensure(ctx, cfg.ConformerModel, cfg.ModelDir, a.pullOptions())
	if err != nil {
		return nil, err
	}

	provider, err := asr.ResolveProvider(cfg.Device)
	if err != nil {
		return nil, err
	}

	modelCfg, err := asr.NewConformerConfig(dir)
	if err != nil {
		return nil, err
	}
	modelCfg.Language = cfg.Language
	modelCfg.Provider = provider
	modelCfg.NumThreads = cfg.NumThreads

	a.log().Info("loading conformer",
		zap.String("model", cfg.ConformerModel),
		zap.String("dir", dir),
		zap.String("provider", provider),
		zap.Bool("rnnt", modelCfg.HasTransducer()),
	)

	rec, err := asr.NewConformerRecognizer(modelCfg)
	if err != nil {
		return nil, err
	}
	return transcription.NewConformerBackend(rec, asr.DefaultTools(), a.log()), nil
}

func (a *appState) loadWhisper(ctx context.Context, cfg *config.Config) (transcription.Backend, error) {
	dir, err := modelhub.Ensure(ctx, cfg.WhisperModel, cfg.ModelDir, a.pullOptions())
	if err != nil {
		return nil, err
	}

	if provider, _ := asr.ResolveProvider(cfg.Device); provider != asr.ProviderCPU {
		a.log().Warn("whisper backend runs on cpu only", zap.String("device", cfg.Device))
	}

	modelCfg := asr.DefaultWhisperConfig(dir)
	modelCfg.Language = cfg.Language
	modelCfg.NumThreads = cfg.NumThreads

	var vadCfg *asr.VADConfig
	if cfg.VADEnabled {
		vadPath, err := modelhub.Ensure(ctx, cfg.VADModel, cfg.ModelDir, a.pullOptions())
		if err != nil {
			return nil, err
		}
		vadCfg = asr.DefaultVADConfig(vadPath)
	}

	a.log().Info("loading whisper",
		zap.String("model", cfg.WhisperModel),
		zap.String("dir", dir),
		zap.Bool("vad", vadCfg != nil),
	)

	rec, err := asr.NewWhisperRecognizer(modelCfg, vadCfg, asr.DefaultTools())
	if err != nil {
		return nil, err
	}
	return transcription.NewWhisperBackend(rec, a.log()), nil
}
