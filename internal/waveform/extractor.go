// Package waveform reduces audio clips to fixed-length amplitude
// envelopes for visualization.
package waveform

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-audio/wav"
)

const (
	// LivePoints is the envelope resolution used for live previews
	LivePoints = 100
	// CompactPoints is the envelope resolution used for compact previews
	CompactPoints = 50
)

// DecodeError indicates an audio payload that could not be decoded
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("audio decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Extract decodes a WAV payload and reduces it to pointCount envelope
// values in [0,1]. Samples are partitioned into pointCount contiguous
// blocks (the last block may be short), each block contributes its mean
// absolute amplitude, and the sequence is normalized by its own maximum.
// An all-silent clip yields an all-zero envelope; a zero-length clip
// yields an empty envelope and no error.
//
// Extract has no shared state and is safe to call concurrently on
// different payloads.
func Extract(payload []byte, pointCount int) ([]float64, error) {
	if pointCount <= 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid point count %d", pointCount)}
	}

	decoder := wav.NewDecoder(bytes.NewReader(payload))
	if !decoder.IsValidFile() {
		return nil, &DecodeError{Reason: "not a valid WAV payload"}
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Reason: "unreadable PCM data", Err: err}
	}

	samples := buf.Data
	if len(samples) == 0 {
		return []float64{}, nil
	}

	return envelope(samples, pointCount), nil
}

func envelope(samples []int, pointCount int) []float64 {
	// Ceiling division keeps all blocks the same size; only the last
	// populated block may come up short.
	blockSize := (len(samples) + pointCount - 1) / pointCount

	points := make([]float64, pointCount)
	max := 0.0
	for i := range points {
		start := i * blockSize
		if start >= len(samples) {
			break
		}
		end := start + blockSize
		if end > len(samples) {
			end = len(samples)
		}

		sum := 0.0
		for _, s := range samples[start:end] {
			sum += math.Abs(float64(s))
		}
		points[i] = sum / float64(end-start)
		if points[i] > max {
			max = points[i]
		}
	}

	// A silent clip stays all-zero; dividing by zero would yield NaN
	if max == 0 {
		return points
	}
	for i := range points {
		points[i] /= max
	}
	return points
}
