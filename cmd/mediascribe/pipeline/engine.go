package pipeline

import (
	"context"
	"fmt"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/apis/azure"
	whisper "github.com/mediascribe/mediascribe/cmd/mediascribe/apis/whisper.cpp"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/config"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/models"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/transcribe"
)

// Engine drives one external recognition engine to completion and normalizes
// its output into segments.
type Engine interface {
	// Load makes the engine ready for inference, reporting percent progress
	// where the underlying work (e.g. a model download) allows it. The
	// pipeline guarantees at most one successful Load per instance.
	Load(ctx context.Context, onProgress func(percent float64)) error
	// Transcribe consumes the whole 16KHz mono sample buffer. Interim text
	// is surfaced through onPartial.
	Transcribe(ctx context.Context, samples []float32, onPartial func(text string)) (transcribe.Output, error)
	Destroy() error
}

func newEngine(cfg config.TranscriberConfig) (Engine, error) {
	switch cfg.TranscribeAPI {
	case config.TranscribeAPIWhisperCPP:
		return &whisperEngine{cfg: cfg}, nil
	case config.TranscribeAPIAzureSpeech:
		rec, err := azure.NewSpeechRecognizer(azure.SpeechRecognizerConfig{
			SpeechKey:    cfg.AzureSpeechKey,
			SpeechRegion: cfg.AzureSpeechRegion,
			Language:     cfg.Language,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
		}
		return &azureEngine{rec: rec}, nil
	default:
		return nil, fmt.Errorf("transcribe API %q not implemented", cfg.TranscribeAPI)
	}
}

// whisperEngine runs batch inference on a local whisper.cpp model,
// downloading the model file on first use.
type whisperEngine struct {
	cfg config.TranscriberConfig
	ctx *whisper.Context
}

func (e *whisperEngine) Load(ctx context.Context, onProgress func(percent float64)) error {
	if e.ctx != nil {
		return nil
	}

	model, err := models.Lookup(string(e.cfg.ModelSize))
	if err != nil {
		return fmt.Errorf("failed to resolve model: %w", err)
	}

	modelFile, err := model.Ensure(ctx, e.cfg.ModelsDir, onProgress)
	if err != nil {
		return fmt.Errorf("failed to fetch model: %w", err)
	}

	wctx, err := whisper.NewContext(whisper.Config{
		ModelFile:  modelFile,
		NumThreads: e.cfg.NumThreads,
		Language:   e.cfg.Language,
	})
	if err != nil {
		return fmt.Errorf("failed to create whisper context: %w", err)
	}
	e.ctx = wctx

	return nil
}

func (e *whisperEngine) Transcribe(_ context.Context, samples []float32, _ func(string)) (transcribe.Output, error) {
	if e.ctx == nil {
		return transcribe.Output{}, fmt.Errorf("engine is not loaded")
	}
	return e.ctx.Transcribe(samples)
}

func (e *whisperEngine) Destroy() error {
	if e.ctx == nil {
		return nil
	}
	err := e.ctx.Destroy()
	e.ctx = nil
	return err
}

// azureEngine streams samples through the Azure speech API.
type azureEngine struct {
	rec *azure.SpeechRecognizer
}

func (e *azureEngine) Load(_ context.Context, _ func(percent float64)) error {
	// Sessions are created per Transcribe call; there's nothing to
	// download or warm up.
	return nil
}

func (e *azureEngine) Transcribe(ctx context.Context, samples []float32, onPartial func(string)) (transcribe.Output, error) {
	return e.rec.Transcribe(ctx, samples, onPartial)
}

func (e *azureEngine) Destroy() error {
	return e.rec.Destroy()
}
