// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture holds the signal path of the gesture lock: a fixed
// capacity three-axis sample buffer, the moving-average filter that smooths
// it, the truncation that drops the filter's unreliable edges, and the
// distance used to compare two recordings.
package gesture

// Sample is one acceleration vector (m/s²) read at one instant.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Buffer is a three-channel time series with a fixed capacity and a logical
// size marking the valid prefix. Slots at or beyond Size are stale.
//
// All storage is allocated by NewBuffer; no operation grows or reallocates it.
type Buffer struct {
	x, y, z []float64
	size    int

	// scratch keeps the raw channel while Smooth overwrites it in place.
	scratch []float64
}

// NewBuffer allocates a zeroed buffer whose size equals its capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{
		x:       make([]float64, capacity),
		y:       make([]float64, capacity),
		z:       make([]float64, capacity),
		size:    capacity,
		scratch: make([]float64, capacity),
	}
}

// Capacity returns the number of slots allocated per channel.
func (b *Buffer) Capacity() int { return len(b.x) }

// Size returns the number of valid samples.
func (b *Buffer) Size() int { return b.size }

// SetSize marks the first n slots as valid. n is clamped to [0, Capacity].
func (b *Buffer) SetSize(n int) {
	switch {
	case n < 0:
		n = 0
	case n > b.Capacity():
		n = b.Capacity()
	}
	b.size = n
}

// Clear zeroes every slot of every channel and resets size to capacity.
func (b *Buffer) Clear() {
	clear(b.x)
	clear(b.y)
	clear(b.z)
	b.size = b.Capacity()
}

// Set writes s into slot i of each channel. The caller guarantees
// 0 <= i < Capacity.
func (b *Buffer) Set(i int, s Sample) {
	b.x[i] = s.X
	b.y[i] = s.Y
	b.z[i] = s.Z
}

// At returns the sample stored in slot i.
func (b *Buffer) At(i int) Sample {
	return Sample{X: b.x[i], Y: b.y[i], Z: b.z[i]}
}

// Samples returns a copy of the valid prefix.
func (b *Buffer) Samples() []Sample {
	out := make([]Sample, b.size)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// CopyFrom replaces the contents of b with the valid prefix of src.
// Samples that do not fit in b are dropped.
func (b *Buffer) CopyFrom(src *Buffer) {
	n := min(src.size, b.Capacity())
	copy(b.x, src.x[:n])
	copy(b.y, src.y[:n])
	copy(b.z, src.z[:n])
	b.size = n
}

func (b *Buffer) channels() [3][]float64 {
	return [3][]float64{b.x, b.y, b.z}
}
