package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Run("known sizes", func(t *testing.T) {
		for _, size := range []string{"tiny", "base", "small", "medium", "large"} {
			m, err := Lookup(size)
			require.NoError(t, err)
			require.Equal(t, size, m.Size)
			require.NotEmpty(t, m.FileName)
			require.NotEmpty(t, m.URL)
		}
	})

	t.Run("unknown size", func(t *testing.T) {
		_, err := Lookup("gigantic")
		require.ErrorContains(t, err, "unknown model size")
	})
}

func TestEnsure(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	t.Run("downloads with progress", func(t *testing.T) {
		dir := t.TempDir()
		m := Model{Size: "tiny", FileName: "ggml-tiny.bin", URL: srv.URL}

		var percents []float64
		path, err := m.Ensure(context.Background(), dir, func(percent float64) {
			percents = append(percents, percent)
		})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "ggml-tiny.bin"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, payload, data)

		require.NotEmpty(t, percents)
		require.Equal(t, float64(100), percents[len(percents)-1])
	})

	t.Run("existing file short-circuits", func(t *testing.T) {
		dir := t.TempDir()
		m := Model{Size: "tiny", FileName: "ggml-tiny.bin", URL: "http://invalid.localhost"}
		require.NoError(t, os.WriteFile(m.Path(dir), []byte("cached"), 0600))

		path, err := m.Ensure(context.Background(), dir, nil)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, []byte("cached"), data)
	})

	t.Run("bad status", func(t *testing.T) {
		errSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer errSrv.Close()

		m := Model{Size: "tiny", FileName: "ggml-tiny.bin", URL: errSrv.URL}
		_, err := m.Ensure(context.Background(), t.TempDir(), nil)
		require.ErrorContains(t, err, "unexpected status")
	})
}
