package transcribe

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSRTTS(t *testing.T) {
	require.Equal(t, "00:00:00,000", srtTS(0))

	require.Equal(t, "00:01:10,000", srtTS(70))

	require.Equal(t, "00:00:00,999", srtTS(0.999))

	require.Equal(t, "00:00:01,100", srtTS(1.1))

	require.Equal(t, "01:01:01,234", srtTS(3661.234))

	require.Equal(t, "01:45:45,045", srtTS(6345.045))

	// Hours are not wrapped at 24.
	require.Equal(t, "25:00:00,000", srtTS(90000))
}

func TestVTTTS(t *testing.T) {
	require.Equal(t, "00:00:00.000", vttTS(0))

	require.Equal(t, "00:01:02.200", vttTS(62.2))

	require.Equal(t, "01:01:01.234", vttTS(3661.234))

	require.Equal(t, "01:00:00.000", vttTS(3600))
}

func TestDisplayTS(t *testing.T) {
	require.Equal(t, "00:00", DisplayTS(math.NaN()))

	require.Equal(t, "00:00", DisplayTS(math.Inf(1)))

	require.Equal(t, "00:00", DisplayTS(-1))

	require.Equal(t, "00:00", DisplayTS(0))

	require.Equal(t, "01:15", DisplayTS(75))

	require.Equal(t, "61:01", DisplayTS(3661))
}

func TestSRT(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Result{}.SRT(&buf))
		require.Empty(t, buf.String())
	})

	t.Run("blocks", func(t *testing.T) {
		r := NewResult([]Segment{
			{Text: "hello", StartSec: 0, EndSec: 2, Confidence: DefaultConfidence},
			{Text: "world", StartSec: 5, EndSec: 7, Confidence: DefaultConfidence},
		}, "", "en")

		var buf bytes.Buffer
		require.NoError(t, r.SRT(&buf))

		expected := `1
00:00:00,000 --> 00:00:02,000
hello

2
00:00:05,000 --> 00:00:07,000
world
`
		require.Equal(t, expected, buf.String())

		// One block per segment, each carrying its 1-based index.
		blocks := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n\n")
		require.Len(t, blocks, len(r.Segments))
		for i, block := range blocks {
			lines := strings.Split(block, "\n")
			require.Len(t, lines, 3)
			require.Equal(t, []string{"1", "2"}[i], lines[0])
		}
	})
}

func TestWebVTT(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Result{}.WebVTT(&buf))
		require.Equal(t, "WEBVTT\n", buf.String())
	})

	t.Run("cues", func(t *testing.T) {
		r := NewResult([]Segment{
			{Text: "hello", StartSec: 0, EndSec: 2, Confidence: DefaultConfidence},
			{Text: "world", StartSec: 5, EndSec: 7.5, Confidence: DefaultConfidence},
		}, "", "en")

		var buf bytes.Buffer
		require.NoError(t, r.WebVTT(&buf))

		expected := `WEBVTT

1
00:00:00.000 --> 00:00:02.000
hello

2
00:00:05.000 --> 00:00:07.500
world
`
		require.Equal(t, expected, buf.String())
	})
}

func TestText(t *testing.T) {
	r := NewResult([]Segment{
		{Text: "first", StartSec: 0, EndSec: 1},
		{Text: "second", StartSec: 1.5, EndSec: 3},
		{Text: "third", StartSec: 20, EndSec: 22},
	}, "", "en")

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.WriteText(&buf, TextOptions{}))
		require.Equal(t, "first second third\n", buf.String())
		require.Equal(t, r.Text+"\n", buf.String())
	})

	t.Run("timestamped compact", func(t *testing.T) {
		var opts TextOptions
		opts.SetDefaults()
		opts.WithTimestamps = true

		var buf bytes.Buffer
		require.NoError(t, r.WriteText(&buf, opts))

		// first/second are close enough to join, third starts after a long
		// silence and stays on its own.
		expected := `00:00 -> 00:03
first second

00:20 -> 00:22
third
`
		require.Equal(t, expected, buf.String())
	})
}

func TestCompactSegments(t *testing.T) {
	opts := TextCompactOptions{
		SilenceThresholdMs:   2000,
		MaxSegmentDurationMs: 10000,
	}

	t.Run("empty", func(t *testing.T) {
		require.Empty(t, compactSegments(nil, opts))
	})

	t.Run("single", func(t *testing.T) {
		segments := []Segment{{Text: "only", StartSec: 0, EndSec: 1}}
		require.Equal(t, segments, compactSegments(segments, opts))
	})

	t.Run("duration cap", func(t *testing.T) {
		segments := []Segment{
			{Text: "a", StartSec: 0, EndSec: 4},
			{Text: "b", StartSec: 5, EndSec: 9},
			{Text: "c", StartSec: 10, EndSec: 14},
		}
		out := compactSegments(segments, opts)
		require.Len(t, out, 2)
		require.Equal(t, "a b", out[0].Text)
		require.Equal(t, float64(9), out[0].EndSec)
		require.Equal(t, "c", out[1].Text)
	})
}
