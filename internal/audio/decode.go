package audio

import (
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// DecodeMono decodes an MP3 stream to a peak-normalized mono waveform.
// Stereo channels are averaged. Returns the waveform in [-1, 1] and the
// source sample rate. A clip whose peak amplitude is zero returns
// ErrSilent rather than dividing by zero.
func DecodeMono(r io.Reader) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding mp3: %w", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo frames (4 bytes).
	var (
		samples []float32
		carry   []byte
		buf     = make([]byte, 8192)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				data = append(carry, data...)
				carry = nil
			}
			end := len(data) - len(data)%4
			for i := 0; i < end; i += 4 {
				left := int16(data[i]) | int16(data[i+1])<<8
				right := int16(data[i+2]) | int16(data[i+3])<<8
				samples = append(samples, (float32(left)+float32(right))/2/32768)
			}
			if end < len(data) {
				carry = append(carry, data[end:]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading pcm: %w", err)
		}
	}

	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("decoding mp3: %w", ErrSilent)
	}

	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak == 0 {
		return nil, 0, ErrSilent
	}
	for i := range samples {
		samples[i] /= peak
	}

	return samples, dec.SampleRate(), nil
}
