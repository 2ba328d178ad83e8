package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Model describes one downloadable whisper.cpp GGML model.
type Model struct {
	Size     string
	FileName string
	URL      string
}

var catalog = []Model{
	{
		Size:     "tiny",
		FileName: "ggml-tiny.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
	},
	{
		Size:     "base",
		FileName: "ggml-base.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
	},
	{
		Size:     "small",
		FileName: "ggml-small.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
	},
	{
		Size:     "medium",
		FileName: "ggml-medium.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
	},
	{
		Size:     "large",
		FileName: "ggml-large-v3.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
	},
}

// Lookup resolves a model size identifier against the catalog.
func Lookup(size string) (Model, error) {
	for _, m := range catalog {
		if m.Size == size {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("unknown model size %q", size)
}

// Path returns where the model file lives (or should live) under modelsDir.
func (m Model) Path(modelsDir string) string {
	return filepath.Join(modelsDir, m.FileName)
}

// Ensure makes the model file available locally, downloading it on first
// use. A model already on disk is returned immediately. Download progress is
// reported as a percentage when the server advertises a content length.
func (m Model) Ensure(ctx context.Context, modelsDir string, onProgress func(percent float64)) (string, error) {
	path := m.Path(modelsDir)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(modelsDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create models dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch model: unexpected status %d", resp.StatusCode)
	}

	// Download to a temp name first so a partial file never passes the
	// existence check above.
	tmpPath := path + ".part"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	var written int64
	buf := make([]byte, 1<<20)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return "", fmt.Errorf("failed to write model file: %w", err)
			}
			written += int64(n)
			if onProgress != nil && resp.ContentLength > 0 {
				onProgress(float64(written) / float64(resp.ContentLength) * 100)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("failed to download model: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to move model file in place: %w", err)
	}

	return path, nil
}
