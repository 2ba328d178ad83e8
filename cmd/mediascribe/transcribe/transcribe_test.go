package transcribe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResult(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r := NewResult(nil, "", "")
		require.Empty(t, r.Text)
		require.Empty(t, r.Segments)
		require.Zero(t, r.Duration)
	})

	t.Run("raw text fallback", func(t *testing.T) {
		r := NewResult(nil, "  some raw engine text ", "en")
		require.Equal(t, "some raw engine text", r.Text)
		require.Empty(t, r.Segments)
		require.Zero(t, r.Duration)
		require.Equal(t, "en", r.Language)
	})

	t.Run("segments", func(t *testing.T) {
		segments := []Segment{
			{Text: " hello ", StartSec: 0, EndSec: 2, Confidence: DefaultConfidence},
			{Text: "world", StartSec: 5, EndSec: 7, Confidence: DefaultConfidence},
		}
		r := NewResult(segments, "", "en")
		require.Equal(t, "hello world", r.Text)
		require.Equal(t, float64(7), r.Duration)
		require.Len(t, r.Segments, 2)
		for i := 1; i < len(r.Segments); i++ {
			require.LessOrEqual(t, r.Segments[i-1].StartSec, r.Segments[i].StartSec)
		}
	})

	t.Run("raw text ignored when segments exist", func(t *testing.T) {
		segments := []Segment{
			{Text: "hello", StartSec: 0, EndSec: 1},
		}
		r := NewResult(segments, "raw", "en")
		require.Equal(t, "hello", r.Text)
	})

	t.Run("blank segment text skipped in join", func(t *testing.T) {
		segments := []Segment{
			{Text: "hello", StartSec: 0, EndSec: 1},
			{Text: "   ", StartSec: 1, EndSec: 2},
			{Text: "world", StartSec: 2, EndSec: 3},
		}
		r := NewResult(segments, "", "en")
		require.Equal(t, "hello world", r.Text)
		require.Equal(t, float64(3), r.Duration)
	})
}
