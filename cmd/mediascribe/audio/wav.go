package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const wavHeaderLen = 44

// PCMToWAV wraps mono float32 samples in a WAV container (16-bit PCM) at the
// given sample rate. Used to feed engines that want WAV-framed audio.
func PCMToWAV(samples []float32, rate int) []byte {
	const bitDepth = 16
	const channels = 1

	wav := make([]byte, wavHeaderLen+len(samples)*2)
	pcm := wav[wavHeaderLen:]

	// WAV Header
	wav[0] = 'R'
	wav[1] = 'I'
	wav[2] = 'F'
	wav[3] = 'F'
	binary.LittleEndian.PutUint32(wav[4:], uint32(len(wav)-8))
	wav[8] = 'W'
	wav[9] = 'A'
	wav[10] = 'V'
	wav[11] = 'E'
	wav[12] = 'f'
	wav[13] = 'm'
	wav[14] = 't'
	wav[15] = ' '
	binary.LittleEndian.PutUint32(wav[16:], 16)
	binary.LittleEndian.PutUint16(wav[20:], 1)
	binary.LittleEndian.PutUint16(wav[22:], channels)
	binary.LittleEndian.PutUint32(wav[24:], uint32(rate))
	binary.LittleEndian.PutUint32(wav[28:], uint32(rate*bitDepth*channels)/8)
	binary.LittleEndian.PutUint16(wav[32:], (bitDepth*channels)/8)
	binary.LittleEndian.PutUint16(wav[34:], bitDepth)
	wav[36] = 'd'
	wav[37] = 'a'
	wav[38] = 't'
	wav[39] = 'a'
	binary.LittleEndian.PutUint32(wav[40:], uint32(len(samples)*2))

	// Convert audio samples from float32 samples to 16-bit PCM
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*32767.0)))
	}

	return wav
}

// DecodeWAV parses a WAV file into per-channel float32 samples at the
// source's native rate. 16-bit integer and 32-bit float PCM encodings are
// supported, which covers both typical recordings and ffmpeg's extraction
// output.
func DecodeWAV(data []byte) ([][]float32, int, error) {
	if len(data) < wavHeaderLen {
		return nil, 0, fmt.Errorf("data too short to be a valid WAV file")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("missing RIFF/WAVE header")
	}

	var audioFormat, numChannels, bitDepth int
	var sampleRate int
	var pcm []byte

	// Chunk scan. ffmpeg likes to insert LIST chunks before data.
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]
		if chunkSize > len(body) {
			chunkSize = len(body)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d", chunkSize)
			}
			audioFormat = int(binary.LittleEndian.Uint16(body[0:2]))
			numChannels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			pcm = body[:chunkSize]
		}

		// Chunks are word aligned.
		pos += 8 + chunkSize + chunkSize%2
	}

	if numChannels == 0 || sampleRate == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	bytesPerSample := bitDepth / 8
	if bytesPerSample == 0 {
		return nil, 0, fmt.Errorf("invalid bit depth %d", bitDepth)
	}
	frameSize := bytesPerSample * numChannels
	numFrames := len(pcm) / frameSize

	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, numFrames)
	}

	switch {
	case audioFormat == 1 && bitDepth == 16:
		for i := 0; i < numFrames; i++ {
			for c := 0; c < numChannels; c++ {
				v := int16(binary.LittleEndian.Uint16(pcm[i*frameSize+c*2:]))
				channels[c][i] = float32(v) / 32768.0
			}
		}
	case audioFormat == 3 && bitDepth == 32:
		for i := 0; i < numFrames; i++ {
			for c := 0; c < numChannels; c++ {
				bits := binary.LittleEndian.Uint32(pcm[i*frameSize+c*4:])
				channels[c][i] = math.Float32frombits(bits)
			}
		}
	default:
		return nil, 0, fmt.Errorf("unsupported WAV encoding: format %d, %d bits", audioFormat, bitDepth)
	}

	return channels, sampleRate, nil
}
