package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckFFmpeg reports whether the ffmpeg binary is reachable. Video
// containers cannot be decoded without it.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// ExtractAudio demuxes and decodes the input's audio stream into a 16-bit
// PCM WAV file in tmpDir, keeping the source's native sample rate and
// channel count. Mixdown and resampling happen later in the pipeline.
func ExtractAudio(ctx context.Context, inputPath, tmpDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(tmpDir, base+".wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		outPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}

	return outPath, nil
}

// lastLine extracts the final non-empty stderr line, which is where ffmpeg
// puts the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
