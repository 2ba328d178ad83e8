package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
)

const readChunkSize = 256 * 1024

// PCM holds decoded audio at the source's native rate and channel layout.
type PCM struct {
	Channels [][]float32
	Rate     int
}

// ReadFile reads the whole file into memory, reporting coarse progress as a
// percentage of bytes read.
func ReadFile(path string, onProgress func(percent float64)) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	data := make([]byte, 0, info.Size())
	buf := make([]byte, readChunkSize)
	for {
		n, err := f.Read(buf)
		data = append(data, buf[:n]...)
		if onProgress != nil && info.Size() > 0 && n > 0 {
			onProgress(float64(len(data)) / float64(info.Size()) * 100)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	return data, nil
}

// Decode turns a media payload into per-channel samples at the source's
// native rate. WAV is parsed directly, mp3/ogg/flac go through the beep
// decoders. Video containers must be extracted to WAV first (see
// ExtractAudio).
func Decode(data []byte, ext string) (PCM, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav":
		channels, rate, err := DecodeWAV(data)
		if err != nil {
			return PCM{}, fmt.Errorf("failed to decode wav: %w", err)
		}
		return PCM{Channels: channels, Rate: rate}, nil
	case "mp3":
		return decodeStream(data, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(rc)
		})
	case "ogg":
		return decodeStream(data, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(rc)
		})
	case "flac":
		return decodeStream(data, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(rc)
		})
	default:
		return PCM{}, fmt.Errorf("no decoder for %q", ext)
	}
}

// decodeStream drains a beep streamer into per-channel buffers. The
// decoders always present two channel slots, with mono sources mirrored on
// both, so mono input maps to a single channel.
func decodeStream(data []byte, decode func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)) (PCM, error) {
	streamer, format, err := decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return PCM{}, fmt.Errorf("failed to decode stream: %w", err)
	}
	defer streamer.Close()

	numChannels := format.NumChannels
	if numChannels > 2 {
		numChannels = 2
	}

	channels := make([][]float32, numChannels)
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			channels[0] = append(channels[0], float32(buf[i][0]))
			if numChannels == 2 {
				channels[1] = append(channels[1], float32(buf[i][1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return PCM{}, fmt.Errorf("failed to drain stream: %w", err)
	}

	return PCM{Channels: channels, Rate: int(format.SampleRate)}, nil
}
