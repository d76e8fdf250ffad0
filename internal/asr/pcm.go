package asr

import "encoding/binary"

// SampleRate is the rate every model in this package is fed at.
const SampleRate = 16000

// bytesToFloat32 converts 16-bit little-endian PCM bytes to float32 samples
func bytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := 0; i < len(samples); i++ {
		sample := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// window is a slice of samples with its offset in the source audio.
type window struct {
	offset  int
	samples []float32
}

// splitWindows cuts samples into consecutive windows of at most size samples.
func splitWindows(samples []float32, offset, size int) []window {
	if size <= 0 || len(samples) <= size {
		return []window{{offset: offset, samples: samples}}
	}

	windows := make([]window, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		windows = append(windows, window{offset: offset + start, samples: samples[start:end]})
	}
	return windows
}
