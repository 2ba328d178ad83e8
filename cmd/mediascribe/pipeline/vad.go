package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/audio"
)

const (
	vadWindowSizeInSamples  = 512
	vadThreshold            = 0.5
	vadMinSilenceDurationMs = 150
	vadMinSpeechDurationMs  = 200
	vadSilencePadMs         = 32
)

// hasSpeech runs the voice activity detector over the prepared samples and
// reports whether any speech was found. Silence-only input short-circuits
// the run with an empty result instead of wasting an inference pass.
func hasSpeech(samples []float32, modelsDir string) (bool, error) {
	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            filepath.Join(modelsDir, "silero_vad.onnx"),
		SampleRate:           audio.EngineSampleRate,
		WindowSize:           vadWindowSizeInSamples,
		Threshold:            vadThreshold,
		MinSilenceDurationMs: vadMinSilenceDurationMs,
		MinSpeechDurationMs:  vadMinSpeechDurationMs,
		SilencePadMs:         vadSilencePadMs,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create speech detector: %w", err)
	}
	defer func() {
		if err := sd.Destroy(); err != nil {
			slog.Error("failed to destroy speech detector", slog.String("err", err.Error()))
		}
	}()

	segments, err := sd.Detect(samples)
	if err != nil {
		return false, fmt.Errorf("failed to detect speech: %w", err)
	}

	return len(segments) > 0, nil
}
