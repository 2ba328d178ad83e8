package audio

import (
	"math"
)

// EngineSampleRate is the fixed input rate required by the recognition
// engines (both whisper.cpp and the Azure speech API expect 16KHz mono).
const EngineSampleRate = 16000

// MixdownMono averages the given per-channel sample buffers into a single
// mono buffer: mono[i] = sum(channels[c][i]) / len(channels). Single-channel
// input passes through unchanged. All channels must have the same length.
func MixdownMono(channels [][]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	if len(channels) == 1 {
		return channels[0]
	}

	mono := make([]float32, len(channels[0]))
	for i := range mono {
		var sum float32
		for _, ch := range channels {
			sum += ch[i]
		}
		mono[i] = sum / float32(len(channels))
	}

	return mono
}

// Resample converts samples from srcRate to dstRate using linear
// interpolation. The output length is round(len(samples) * dstRate/srcRate).
// Equal rates pass through unchanged.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(math.Round(float64(len(samples)) * float64(dstRate) / float64(srcRate)))
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		if j > len(samples)-1 {
			j = len(samples) - 1
		}
		k := j + 1
		if k > len(samples)-1 {
			k = len(samples) - 1
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j]*(1-frac) + samples[k]*frac
	}

	return out
}
