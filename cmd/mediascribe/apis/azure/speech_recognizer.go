package azure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/audio"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/transcribe"

	azaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
)

// Session states for the continuous recognition loop. The service may stop a
// session on its own (e.g. after prolonged silence); as long as the input has
// not been fully consumed and the caller has not given up we restart it.
const (
	stateIdle int32 = iota
	stateListening
	stateRestarting
	stateStopped
)

type SpeechRecognizerConfig struct {
	SpeechKey    string
	SpeechRegion string
	Language     string
}

func (c SpeechRecognizerConfig) IsValid() error {
	if c.SpeechKey == "" {
		return fmt.Errorf("invalid SpeechKey: should not be empty")
	}

	if c.SpeechRegion == "" {
		return fmt.Errorf("invalid SpeechRegion: should not be empty")
	}

	return nil
}

type SpeechRecognizer struct {
	cfg   SpeechRecognizerConfig
	state atomic.Int32
}

func NewSpeechRecognizer(cfg SpeechRecognizerConfig) (*SpeechRecognizer, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &SpeechRecognizer{
		cfg: cfg,
	}, nil
}

// shouldRestart decides whether a spontaneously stopped session gets
// restarted. There's no bound on the restart count; the terminal conditions
// are input exhaustion and caller cancellation.
func shouldRestart(state int32, finished, cancelled bool) bool {
	return state == stateListening && !finished && !cancelled
}

// trySendErr reports a callback failure without ever blocking the SDK's
// callback goroutine. Only the first error is kept; later ones would be
// discarded by the caller anyway.
func trySendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// Transcribe pushes the given 16KHz mono samples through a continuous
// recognition session. Interim results are surfaced through onPartial and
// never become segments; each final result closes a segment spanning from
// the previous final boundary to the service-reported position.
func (s *SpeechRecognizer) Transcribe(ctx context.Context, samples []float32, onPartial func(text string)) (transcribe.Output, error) {
	cfg, err := speech.NewSpeechConfigFromSubscription(s.cfg.SpeechKey, s.cfg.SpeechRegion)
	if err != nil {
		return transcribe.Output{}, fmt.Errorf("failed to create speech config: %w", err)
	}
	defer cfg.Close()

	if s.cfg.Language != "" {
		if err := cfg.SetSpeechRecognitionLanguage(s.cfg.Language); err != nil {
			return transcribe.Output{}, fmt.Errorf("failed to set language: %w", err)
		}
	}

	stream, err := azaudio.CreatePushAudioInputStream()
	if err != nil {
		return transcribe.Output{}, fmt.Errorf("failed to create audio stream: %w", err)
	}
	defer stream.Close()

	audioConfig, err := azaudio.NewAudioConfigFromStreamInput(stream)
	if err != nil {
		return transcribe.Output{}, fmt.Errorf("failed to create audio config: %w", err)
	}
	defer audioConfig.Close()

	recognizer, err := speech.NewSpeechRecognizerFromConfig(cfg, audioConfig)
	if err != nil {
		return transcribe.Output{}, fmt.Errorf("failed to create speech recognizer: %w", err)
	}
	defer recognizer.Close()

	var mut sync.Mutex
	var segments []transcribe.Segment
	var lastEndSec float64
	var finished atomic.Bool
	var cancelled atomic.Bool

	doneCh := make(chan struct{})
	var doneOnce sync.Once
	errCh := make(chan error, 1)

	recognizer.SessionStarted(func(event speech.SessionEventArgs) {
		defer event.Close()
		s.state.Store(stateListening)
		slog.Debug("session started", slog.String("sessionID", event.SessionID))
	})

	recognizer.SessionStopped(func(event speech.SessionEventArgs) {
		defer event.Close()
		slog.Debug("session stopped", slog.String("sessionID", event.SessionID))

		if shouldRestart(s.state.Load(), finished.Load(), cancelled.Load()) {
			s.state.Store(stateRestarting)
			slog.Debug("restarting recognition session", slog.String("sessionID", event.SessionID))
			if err := <-recognizer.StartContinuousRecognitionAsync(); err != nil {
				trySendErr(errCh, fmt.Errorf("failed to restart recognizer: %w", err))
			}
			return
		}

		s.state.Store(stateStopped)
		doneOnce.Do(func() {
			close(doneCh)
		})
	})

	recognizer.Canceled(func(event speech.SpeechRecognitionCanceledEventArgs) {
		defer event.Close()

		// End of stream is the expected way for a session to finish.
		if event.Reason == common.EndOfStream {
			finished.Store(true)
			doneOnce.Do(func() {
				close(doneCh)
			})
			return
		}

		slog.Info("recognition canceled", slog.String("details", event.ErrorDetails))
		if event.ErrorDetails != "" {
			trySendErr(errCh, fmt.Errorf("recognition failed: %s", event.ErrorDetails))
		}
	})

	recognizer.Recognizing(func(event speech.SpeechRecognitionEventArgs) {
		defer event.Close()
		if onPartial != nil && event.Result.Text != "" {
			onPartial(event.Result.Text)
		}
	})

	recognizer.Recognized(func(event speech.SpeechRecognitionEventArgs) {
		defer event.Close()

		// "no speech detected" is benign: it simply produces no segment.
		if event.Result.Reason == common.NoMatch {
			slog.Debug("no match for recognized event")
			return
		}

		if event.Result.Text == "" {
			return
		}

		mut.Lock()
		defer mut.Unlock()

		start := lastEndSec
		end := event.Result.Offset.Seconds() + event.Result.Duration.Seconds()
		if end < start {
			end = start
		}
		lastEndSec = end

		segments = append(segments, transcribe.Segment{
			Text:       event.Result.Text,
			StartSec:   start,
			EndSec:     end,
			Confidence: transcribe.DefaultConfidence,
		})
	})

	if err := stream.Write(audio.PCMToWAV(samples, audio.EngineSampleRate)); err != nil {
		return transcribe.Output{}, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := <-recognizer.StartContinuousRecognitionAsync(); err != nil {
		return transcribe.Output{}, fmt.Errorf("failed to start recognizer: %w", err)
	}
	defer func() {
		s.state.Store(stateStopped)
		if err := <-recognizer.StopContinuousRecognitionAsync(); err != nil {
			slog.Error("failed to stop recognizer", slog.String("err", err.Error()))
		}
	}()

	// This is important as it flushes out any remaining audio data.
	stream.CloseStream()

	select {
	case <-doneCh:
	case err := <-errCh:
		return transcribe.Output{}, err
	case <-ctx.Done():
		cancelled.Store(true)
		return transcribe.Output{}, ctx.Err()
	}

	mut.Lock()
	defer mut.Unlock()

	return transcribe.Output{
		Segments: segments,
		Language: s.cfg.Language,
	}, nil
}

func (s *SpeechRecognizer) Destroy() error {
	return nil
}
