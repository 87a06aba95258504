// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
)

// MockSource replays a synthetic gesture: one turn of a circle in X/Y
// while Z ramps from 0 to 1, plus uniform noise. It repeats every period
// reads.
type MockSource struct {
	mu     sync.Mutex
	period int
	noise  float64
	rng    *rand.Rand
	n      int
}

// NewMockSource creates a mock motion source. noise is the amplitude of the
// uniform noise added to each axis.
func NewMockSource(period int, noise float64, seed uint64) *MockSource {
	if period < 2 {
		period = 2
	}
	return &MockSource{
		period: period,
		noise:  noise,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (m *MockSource) Read() (gesture.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := float64(m.n%m.period) / float64(m.period-1)
	m.n++

	return gesture.Sample{
		X: math.Cos(2*math.Pi*t) + m.jitter(),
		Y: math.Sin(2*math.Pi*t) + m.jitter(),
		Z: t + m.jitter(),
	}, nil
}

// Reset restarts the gesture from its first sample.
func (m *MockSource) Reset() {
	m.mu.Lock()
	m.n = 0
	m.mu.Unlock()
}

func (m *MockSource) jitter() float64 {
	if m.noise == 0 {
		return 0
	}
	return m.noise * (m.rng.Float64()*2 - 1)
}
