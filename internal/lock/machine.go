// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package lock is the gesture lock state machine. It sequences capture,
// filtering, truncation and comparison of gestures and drives the indicator
// from button and timeout events.
package lock

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
)

const (
	MaxTime       = 3500 * time.Millisecond // longest recording
	PollingDelay  = 70 * time.Millisecond   // interval between samples
	Threshold     = 2.0                     // max mean distance (m/s²) for a match
	Window        = 10                      // smoothing window in samples
	OutcomeHold   = 5 * time.Second         // how long Failed/Success are shown
	DebounceDelay = 500 * time.Millisecond  // hold after a button press that changes state

	ToneFrequency = 1000 // Hz
	ToneDuration  = 100 * time.Millisecond

	DefaultIdlePoll = 20 * time.Millisecond
)

// Capacity is the number of samples that fit in maxTime at one sample per
// pollingDelay, rounded up.
func Capacity(maxTime, pollingDelay time.Duration) int {
	if pollingDelay <= 0 {
		return 0
	}
	return int(math.Ceil(float64(maxTime) / float64(pollingDelay)))
}

// Settings are the timing and matching parameters. DefaultSettings returns
// the values the device ships with.
type Settings struct {
	Capacity      int
	Window        int
	Threshold     float64
	PollingDelay  time.Duration
	OutcomeHold   time.Duration
	DebounceDelay time.Duration
	IdlePoll      time.Duration // Run's wait between steps that do not change state
}

func DefaultSettings() Settings {
	return Settings{
		Capacity:      Capacity(MaxTime, PollingDelay),
		Window:        Window,
		Threshold:     Threshold,
		PollingDelay:  PollingDelay,
		OutcomeHold:   OutcomeHold,
		DebounceDelay: DebounceDelay,
		IdlePoll:      DefaultIdlePoll,
	}
}

// Machine owns the reference code and the attempt pattern. It is not safe
// for concurrent use; one driver calls Step or Run.
type Machine struct {
	dev      Devices
	settings Settings

	state   State
	entered bool

	reference *gesture.Buffer
	attempt   *gesture.Buffer
	last      gesture.Sample
}

// NewMachine allocates both pattern buffers and starts in StateIdle.
func NewMachine(dev Devices, settings Settings) *Machine {
	if dev.Clock == nil {
		dev.Clock = RealClock{}
	}
	if dev.Events == nil {
		dev.Events = discardEvents{}
	}
	return &Machine{
		dev:       dev,
		settings:  settings,
		state:     StateIdle,
		reference: gesture.NewBuffer(settings.Capacity),
		attempt:   gesture.NewBuffer(settings.Capacity),
	}
}

// State returns the state the next Step will execute.
func (m *Machine) State() State { return m.state }

// Reference returns the stored unlock code.
func (m *Machine) Reference() *gesture.Buffer { return m.reference }

// Attempt returns the most recent attempt pattern.
func (m *Machine) Attempt() *gesture.Buffer { return m.attempt }

// Run calls Step until ctx is done. Steps that leave the state unchanged are
// followed by an IdlePoll wait so button polling does not spin.
func (m *Machine) Run(ctx context.Context) error {
	log.Printf("lock: running (capacity=%d window=%d threshold=%.2f)",
		m.settings.Capacity, m.settings.Window, m.settings.Threshold)
	for {
		before := m.state
		if err := m.Step(ctx); err != nil {
			return err
		}
		if m.state == before {
			if err := m.dev.Clock.Sleep(ctx, m.settings.IdlePoll); err != nil {
				return err
			}
		}
	}
}

// Step runs the current state's handler to completion and moves to the
// next state. The entry action runs once per visit. It only fails with the
// context's error, in which case the state is unchanged.
func (m *Machine) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.entered {
		m.show(indicatorFor(m.state))
		m.entered = true
	}

	next, err := m.handle(ctx)
	if err != nil {
		return err
	}
	if next != m.state {
		m.transition(next)
	}
	return nil
}

func (m *Machine) handle(ctx context.Context) (State, error) {
	switch m.state {
	case StateIdle:
		if !m.dev.Buttons.Pressed(ButtonLeft) {
			return StateIdle, nil
		}
		m.tone()
		return m.debounce(ctx, StateRecordingCode)

	case StateRecordingCode:
		captured, err := m.record(ctx, m.reference, ButtonLeft)
		if err != nil {
			return m.state, err
		}
		log.Printf("lock: unlock code recorded (%d samples, %d after filtering)", captured, m.reference.Size())
		m.emit(Event{Kind: EventRecorded, From: m.state, To: StateReady, Captured: captured, Size: m.reference.Size()})
		return StateReady, nil

	case StateReady:
		switch {
		case m.dev.Buttons.Pressed(ButtonLeft):
			return m.debounce(ctx, StateRecordingCode)
		case m.dev.Buttons.Pressed(ButtonRight):
			return m.debounce(ctx, StateRecordingAttempt)
		}
		return StateReady, nil

	case StateRecordingAttempt:
		captured, err := m.record(ctx, m.attempt, ButtonRight)
		if err != nil {
			return m.state, err
		}
		return m.score(captured), nil

	case StateFailed, StateSuccess:
		if err := m.dev.Clock.Sleep(ctx, m.settings.OutcomeHold); err != nil {
			return m.state, err
		}
		return StateReady, nil
	}

	log.Printf("lock: unknown state %d, resetting", m.state)
	return StateIdle, nil
}

// record captures into buf until the stop button is pressed or buf is full,
// then smooths and truncates it. A press that is still held when recording
// starts does not stop it; the button has to be released first.
func (m *Machine) record(ctx context.Context, buf *gesture.Buffer, stop Button) (int, error) {
	buf.Clear()
	if r, ok := m.dev.Sensor.(Rewinder); ok {
		r.Reset()
	}
	held := m.dev.Buttons.Pressed(stop)

	n := 0
	for n < buf.Capacity() {
		m.capture(buf, n)
		n++
		if err := m.dev.Clock.Sleep(ctx, m.settings.PollingDelay); err != nil {
			return n, err
		}
		pressed := m.dev.Buttons.Pressed(stop)
		if pressed && !held {
			break
		}
		held = pressed
	}

	buf.SetSize(n)
	buf.Smooth(m.settings.Window)
	buf.Truncate(m.settings.Window)
	return n, nil
}

func (m *Machine) score(captured int) State {
	ev := Event{Kind: EventScored, From: m.state, Captured: captured, Size: m.attempt.Size()}

	d, match, err := gesture.Score(m.attempt, m.reference, m.settings.Threshold)
	switch {
	case errors.Is(err, gesture.ErrSizeMismatch):
		log.Printf("lock: attempt has %d samples, unlock code has %d; cannot compare", m.attempt.Size(), m.reference.Size())
		ev.Error = err.Error()
	case err != nil:
		log.Printf("lock: cannot compare: %v", err)
		ev.Error = err.Error()
	default:
		ev.Distance = d
		log.Printf("lock: average difference %.3f (threshold %.2f)", d, m.settings.Threshold)
	}
	ev.Match = match

	ev.To = StateFailed
	if ev.Match {
		ev.To = StateSuccess
		log.Println("lock: unlocked")
	}
	m.emit(ev)
	return ev.To
}

// capture stores the current sensor reading at index i.
func (m *Machine) capture(buf *gesture.Buffer, i int) {
	buf.Set(i, m.read())
}

func (m *Machine) read() gesture.Sample {
	s, err := m.dev.Sensor.Read()
	if err != nil {
		log.Printf("lock: sensor read error, repeating last sample: %v", err)
		return m.last
	}
	m.last = s
	return s
}

func (m *Machine) debounce(ctx context.Context, next State) (State, error) {
	if err := m.dev.Clock.Sleep(ctx, m.settings.DebounceDelay); err != nil {
		return m.state, err
	}
	return next, nil
}

func (m *Machine) transition(next State) {
	log.Printf("lock: %s -> %s", m.state, next)
	m.emit(Event{Kind: EventTransition, From: m.state, To: next})
	m.state = next
	m.entered = false
	if l, ok := m.dev.Buttons.(PressLatch); ok {
		l.Discard()
	}
}

func (m *Machine) show(ind Indicator) {
	if err := m.dev.Indicator.Show(ind); err != nil {
		log.Printf("lock: indicator %s: %v", ind, err)
	}
}

func (m *Machine) tone() {
	if err := m.dev.Indicator.Tone(ToneFrequency, ToneDuration); err != nil {
		log.Printf("lock: tone: %v", err)
	}
}

func (m *Machine) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = m.dev.Clock.Now()
	}
	m.dev.Events.Publish(ev)
}
