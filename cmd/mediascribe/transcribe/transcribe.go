package transcribe

import (
	"strings"
)

// DefaultConfidence is assigned to segments produced by engines that don't
// report a per-segment confidence score.
const DefaultConfidence = 0.95

// Segment is a finalized, time-bounded piece of transcript text.
// Times are offsets in seconds from the start of the source media.
type Segment struct {
	Text       string
	StartSec   float64
	EndSec     float64
	Confidence float64
}

// Output is what a recognition engine produces for one run, before
// aggregation. Engines with no timing information leave Segments empty and
// report the transcript through RawText.
type Output struct {
	Segments []Segment
	RawText  string
	Language string
}

// Result is the outcome of one completed transcription run.
type Result struct {
	Text     string
	Segments []Segment
	Duration float64
	Language string
}

// NewResult assembles segments into a Result. Segments are kept in the order
// the engine produced them (chronological by construction, never re-sorted).
// Text is the space-joined, trimmed concatenation of segment texts; when the
// engine produced no segmentation, rawText is used as-is.
func NewResult(segments []Segment, rawText, language string) Result {
	r := Result{
		Segments: segments,
		Language: language,
	}

	if len(segments) == 0 {
		r.Text = strings.TrimSpace(rawText)
		return r
	}

	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			texts = append(texts, text)
		}
	}
	r.Text = strings.Join(texts, " ")
	r.Duration = segments[len(segments)-1].EndSec

	return r
}
