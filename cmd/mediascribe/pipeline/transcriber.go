package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/audio"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/config"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/transcribe"
)

// Status identifies the phase a run is currently in.
type Status string

const (
	StatusLoading      Status = "loading"
	StatusReading      Status = "reading"
	StatusDecoding     Status = "decoding"
	StatusProcessing   Status = "processing"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusComplete     Status = "complete"
)

// Progress is reported zero or more times per phase. Percent is in [0, 100]
// and strictly increasing within a phase, or negative when the phase has no
// measurable progress.
type Progress struct {
	Status  Status
	Message string
	Percent float64
}

// Callbacks is the direct notification surface for a caller driving a run.
// Observers that are not the caller can follow the event bus instead.
type Callbacks struct {
	OnProgress func(p Progress)
	OnPartial  func(text string)
}

// Transcriber owns one recognition engine and converts one media file at a
// time into a transcription result. Concurrent Transcribe calls on the same
// instance are rejected.
type Transcriber struct {
	cfg    config.TranscriberConfig
	cbs    Callbacks
	engine Engine
	events *EventBus

	mut    sync.Mutex
	loaded bool
	cancel context.CancelFunc

	isTranscribing atomic.Bool
	isCancelled    atomic.Bool
}

func NewTranscriber(cfg config.TranscriberConfig, cbs Callbacks) (*Transcriber, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &Transcriber{
		cfg:    cfg,
		cbs:    cbs,
		engine: engine,
		events: NewEventBus(0),
	}, nil
}

// Events exposes the run notifications for external observers.
func (t *Transcriber) Events() *EventBus {
	return t.events
}

// IsTranscribing reports whether a run is in flight.
func (t *Transcriber) IsTranscribing() bool {
	return t.isTranscribing.Load()
}

// Cancel requests cooperative cancellation of the in-flight run. The flag is
// checked at every phase boundary; a phase already running may still deliver
// one more callback before teardown completes.
func (t *Transcriber) Cancel() {
	t.isCancelled.Store(true)
	t.mut.Lock()
	cancel := t.cancel
	t.mut.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Destroy releases the engine resources. The Transcriber must not be used
// afterwards.
func (t *Transcriber) Destroy() error {
	return t.engine.Destroy()
}

// Transcribe runs the full pipeline on the configured input file:
// engine load, file read, decode (or extraction for video containers),
// mono mixdown and resampling, recognition and aggregation.
func (t *Transcriber) Transcribe(ctx context.Context) (transcribe.Result, error) {
	if !t.isTranscribing.CompareAndSwap(false, true) {
		return transcribe.Result{}, ErrBusy
	}
	defer t.isTranscribing.Store(false)
	t.isCancelled.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.mut.Lock()
	t.cancel = cancel
	t.mut.Unlock()

	runID := uuid.NewString()
	t.events.Publish(Event{RunID: runID, Type: EventTypeStart, File: t.cfg.InputFile})

	res, err := t.run(ctx, runID)
	if err != nil {
		if IsCancelled(err) {
			slog.Info("transcription cancelled", slog.String("runID", runID))
			t.events.Publish(Event{RunID: runID, Type: EventTypeCancel})
			return transcribe.Result{}, err
		}

		slog.Error("transcription failed", slog.String("runID", runID), slog.String("err", err.Error()))
		t.events.Publish(Event{RunID: runID, Type: EventTypeError, Err: err.Error()})
		return transcribe.Result{}, err
	}

	t.events.Publish(Event{RunID: runID, Type: EventTypeResult, Text: res.Text, IsFinal: true})
	// The end event terminates the run on the bus, so the final progress
	// tick has to precede it.
	t.progress(runID, StatusComplete, "Transcription complete", 100)
	t.events.Publish(Event{RunID: runID, Type: EventTypeEnd, Result: &res})

	return res, nil
}

func (t *Transcriber) run(ctx context.Context, runID string) (transcribe.Result, error) {
	kind, err := config.DetectInputKind(t.cfg.InputFile, "")
	if err != nil {
		return transcribe.Result{}, newError(ErrorKindDecode, err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(t.cfg.InputFile), "."))
	// m4a has no in-process decoder, video containers never do.
	needsExtract := kind == config.InputKindVideo || ext == "m4a"
	if needsExtract {
		if err := audio.CheckFFmpeg(); err != nil {
			return transcribe.Result{}, newError(ErrorKindUnsupportedEnvironment, err)
		}
	}

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	t.progress(runID, StatusLoading, "Loading recognition engine", -1)
	if err := t.load(ctx, runID); err != nil {
		return transcribe.Result{}, newError(ErrorKindEngineLoad, err)
	}

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	inputPath := t.cfg.InputFile
	if needsExtract {
		t.progress(runID, StatusExtracting, "Extracting audio stream", -1)

		tmpDir, err := os.MkdirTemp("", "mediascribe")
		if err != nil {
			return transcribe.Result{}, newError(ErrorKindFileRead, fmt.Errorf("failed to create temp dir: %w", err))
		}
		defer os.RemoveAll(tmpDir)

		wavPath, err := audio.ExtractAudio(ctx, inputPath, tmpDir)
		if err != nil {
			if cErr := t.checkCancelled(ctx); cErr != nil {
				return transcribe.Result{}, cErr
			}
			return transcribe.Result{}, newError(ErrorKindDecode, err)
		}
		inputPath = wavPath
		ext = "wav"
	}

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	data, err := audio.ReadFile(inputPath, func(percent float64) {
		t.progress(runID, StatusReading, "Reading file", percent)
	})
	if err != nil {
		return transcribe.Result{}, newError(ErrorKindFileRead, err)
	}

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	t.progress(runID, StatusDecoding, "Decoding audio", -1)
	pcm, err := audio.Decode(data, ext)
	if err != nil {
		return transcribe.Result{}, newError(ErrorKindDecode, err)
	}

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	t.progress(runID, StatusProcessing, "Preparing samples", -1)
	mono := audio.MixdownMono(pcm.Channels)
	samples := audio.Resample(mono, pcm.Rate, audio.EngineSampleRate)

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	if t.cfg.EnableVAD {
		ok, err := hasSpeech(samples, t.cfg.ModelsDir)
		if err != nil {
			// The VAD is a shortcut, not a gate: fall through to the
			// engine when it's unavailable.
			slog.Warn("speech detection failed", slog.String("err", err.Error()))
		} else if !ok {
			slog.Info("no speech detected", slog.String("runID", runID))
			return transcribe.NewResult(nil, "", t.cfg.Language), nil
		}
	}

	t.progress(runID, StatusTranscribing, "Transcribing", -1)
	out, err := t.engine.Transcribe(ctx, samples, func(text string) {
		t.partial(runID, text)
	})
	if err != nil {
		if cErr := t.checkCancelled(ctx); cErr != nil {
			return transcribe.Result{}, cErr
		}
		return transcribe.Result{}, newError(ErrorKindEngineInference, fmt.Errorf("engine failed: %w", err))
	}

	if err := t.checkCancelled(ctx); err != nil {
		return transcribe.Result{}, err
	}

	language := out.Language
	if language == "" {
		language = t.cfg.Language
	}

	return transcribe.NewResult(out.Segments, out.RawText, language), nil
}

// load performs the one-time engine load. A successful load is never
// repeated on the same instance; a failed one may be retried by a later run.
func (t *Transcriber) load(ctx context.Context, runID string) error {
	t.mut.Lock()
	defer t.mut.Unlock()

	if t.loaded {
		return nil
	}

	err := t.engine.Load(ctx, func(percent float64) {
		if t.isCancelled.Load() {
			return
		}
		if t.cbs.OnProgress != nil {
			t.cbs.OnProgress(Progress{Status: StatusLoading, Message: "Loading recognition engine", Percent: percent})
		}
		t.events.Publish(Event{
			RunID:   runID,
			Type:    EventTypeLoading,
			File:    string(t.cfg.ModelSize),
			Percent: percent,
		})
	})
	if err != nil {
		return err
	}

	t.loaded = true
	return nil
}

func (t *Transcriber) checkCancelled(ctx context.Context) error {
	if t.isCancelled.Load() || errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrCancelled
	}
	return nil
}

func (t *Transcriber) progress(runID string, status Status, message string, percent float64) {
	if t.isCancelled.Load() && status != StatusComplete {
		return
	}

	p := Progress{Status: status, Message: message, Percent: percent}
	if t.cbs.OnProgress != nil {
		t.cbs.OnProgress(p)
	}
	t.events.Publish(Event{RunID: runID, Type: EventTypeProgress, Progress: &p})
}

func (t *Transcriber) partial(runID string, text string) {
	if t.isCancelled.Load() {
		return
	}

	if t.cbs.OnPartial != nil {
		t.cbs.OnPartial(text)
	}
	t.events.Publish(Event{RunID: runID, Type: EventTypeResult, Text: text, IsFinal: false})
}
