package mux

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// InterleaveF32LE packs planar channels into interleaved 32-bit float
// little-endian PCM.
func InterleaveF32LE(planar [][]float32) ([]byte, error) {
	if len(planar) == 0 {
		return nil, nil
	}
	frames := len(planar[0])
	for ch, samples := range planar {
		if len(samples) != frames {
			return nil, fmt.Errorf("channel %v has %v samples, expected %v", ch, len(samples), frames)
		}
	}
	channels := len(planar)
	out := make([]byte, frames*channels*4)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			offset := (i*channels + ch) * 4
			binary.LittleEndian.PutUint32(out[offset:], math.Float32bits(planar[ch][i]))
		}
	}
	return out, nil
}

// SamplesDuration returns the playback duration of n samples per channel.
func SamplesDuration(n int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n * int64(time.Second) / int64(sampleRate))
}
