package transcribe

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// toMs converts a non-negative seconds offset to integer milliseconds.
// Callers must guarantee non-negative finite input.
func toMs(sec float64) int64 {
	return int64(math.Floor(sec * 1000))
}

// srtTS converts a seconds offset to the 00:00:00,000 SRT timestamp format.
// Hours are unbounded (not wrapped at 24).
func srtTS(sec float64) string {
	h, m, s, ms := splitMs(toMs(sec))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// vttTS converts a seconds offset to the 00:00:00.000 WebVTT timestamp format.
func vttTS(sec float64) string {
	h, m, s, ms := splitMs(toMs(sec))
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitMs(ts int64) (h, m, s, ms int64) {
	sMs := int64(1000)
	mMs := 60 * sMs
	hMs := 60 * mMs

	h = ts / hMs
	m = (ts - (h * hMs)) / mMs
	s = ((ts - (h * hMs)) - m*mMs) / sMs
	ms = ((ts - (h * hMs)) - m*mMs) - s*sMs
	return
}

// DisplayTS formats a seconds offset as MM:SS for UI display. Unlike the
// subtitle formatters it never fails: NaN, infinite or negative input yields
// "00:00".
func DisplayTS(sec float64) string {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return "00:00"
	}
	m := int64(sec) / 60
	s := int64(sec) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// SRT writes the transcription in SubRip format: 1-based index, timestamp
// line with comma millisecond separator, text, blocks separated by a blank
// line.
func (r Result) SRT(w io.Writer) error {
	for i, s := range r.Segments {
		nl := "\n"
		if i == 0 {
			nl = ""
		}
		_, err := fmt.Fprintf(w, "%s%d\n%s --> %s\n%s\n", nl, i+1, srtTS(s.StartSec), srtTS(s.EndSec), s.Text)
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}

	return nil
}

// WebVTT writes the transcription in WebVTT format: header line, then per
// segment a cue identifier, timestamp line with dot millisecond separator
// and the text.
func (r Result) WebVTT(w io.Writer) error {
	_, err := fmt.Fprintf(w, "WEBVTT\n")
	if err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	for i, s := range r.Segments {
		_, err = fmt.Fprintf(w, "\n%d\n%s --> %s\n%s\n", i+1, vttTS(s.StartSec), vttTS(s.EndSec), s.Text)
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}

	return nil
}

type TextCompactOptions struct {
	SilenceThresholdMs   int
	MaxSegmentDurationMs int
}

func (o *TextCompactOptions) SetDefaults() {
	o.SilenceThresholdMs = 2000
	o.MaxSegmentDurationMs = 10000
}

func (o *TextCompactOptions) IsEmpty() bool {
	return o == nil || *o == TextCompactOptions{}
}

type TextOptions struct {
	// WithTimestamps emits one timestamped block per segment instead of the
	// plain joined transcript.
	WithTimestamps bool
	CompactOptions TextCompactOptions
}

func (o *TextOptions) SetDefaults() {
	o.CompactOptions.SetDefaults()
}

func (o *TextOptions) IsValid() error {
	if o.CompactOptions.SilenceThresholdMs <= 0 {
		return fmt.Errorf("SilenceThresholdMs should be a positive number")
	}

	if o.CompactOptions.MaxSegmentDurationMs <= 0 {
		return fmt.Errorf("MaxSegmentDurationMs should be a positive number")
	}

	return nil
}

func (o *TextOptions) IsEmpty() bool {
	return o == nil || (!o.WithTimestamps && o.CompactOptions.IsEmpty())
}

func (o *TextOptions) ToEnv() []string {
	return []string{
		fmt.Sprintf("TEXT_WITH_TIMESTAMPS=%t", o.WithTimestamps),
		fmt.Sprintf("TEXT_COMPACT_SILENCE_THRESHOLD_MS=%d", o.CompactOptions.SilenceThresholdMs),
		fmt.Sprintf("TEXT_COMPACT_MAX_SEGMENT_DURATION_MS=%d", o.CompactOptions.MaxSegmentDurationMs),
	}
}

func (o *TextOptions) FromEnv() {
	o.WithTimestamps, _ = strconv.ParseBool(os.Getenv("TEXT_WITH_TIMESTAMPS"))
	o.CompactOptions.SilenceThresholdMs, _ = strconv.Atoi(os.Getenv("TEXT_COMPACT_SILENCE_THRESHOLD_MS"))
	o.CompactOptions.MaxSegmentDurationMs, _ = strconv.Atoi(os.Getenv("TEXT_COMPACT_MAX_SEGMENT_DURATION_MS"))
}

// compactSegments joins adjacent segments separated by less than
// SilenceThresholdMs of silence, as long as the running duration of the
// joined block stays below MaxSegmentDurationMs.
func compactSegments(segments []Segment, opts TextCompactOptions) []Segment {
	if len(segments) < 2 {
		return segments
	}

	out := []Segment{segments[0]}

	for i := 1; i < len(segments); i++ {
		currSeg := segments[i]
		prevSeg := segments[i-1]

		if int(toMs(currSeg.StartSec)-toMs(prevSeg.EndSec)) < opts.SilenceThresholdMs &&
			int(toMs(currSeg.StartSec)-toMs(out[len(out)-1].StartSec)) < opts.MaxSegmentDurationMs {
			out[len(out)-1].Text += " " + currSeg.Text
			out[len(out)-1].EndSec = currSeg.EndSec
		} else {
			out = append(out, currSeg)
		}
	}

	return out
}

// WriteText writes the plain transcript or, with WithTimestamps, one
// "start -> end" block per (optionally compacted) segment.
func (r Result) WriteText(w io.Writer, opts TextOptions) error {
	if !opts.WithTimestamps {
		_, err := fmt.Fprintf(w, "%s\n", r.Text)
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
		return nil
	}

	segments := r.Segments
	if !opts.CompactOptions.IsEmpty() {
		segments = compactSegments(segments, opts.CompactOptions)
	}

	for i, s := range segments {
		nl := "\n"
		if i == 0 {
			nl = ""
		}
		_, err := fmt.Fprintf(w, "%s%s -> %s\n%s\n", nl, DisplayTS(s.StartSec), DisplayTS(s.EndSec), s.Text)
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}

	return nil
}
