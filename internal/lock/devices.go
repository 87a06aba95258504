package lock

import (
	"context"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
)

// MotionSensor provides one acceleration sample per call.
type MotionSensor interface {
	Read() (gesture.Sample, error)
}

// PressLatch is implemented by button sources that remember a press until it
// is polled. The machine discards remembered presses on every transition, so
// a press the old state ignored or slept through does not act in the new one.
type PressLatch interface {
	Discard()
}

// Rewinder is implemented by sensors that replay a fixed trace. The machine
// rewinds them before every capture.
type Rewinder interface {
	Reset()
}

// ButtonSource reports the current level of a button.
type ButtonSource interface {
	Pressed(b Button) bool
}

// IndicatorSink renders the device state to the user.
type IndicatorSink interface {
	Show(ind Indicator) error
	Tone(freqHz int, d time.Duration) error
}

// Clock is the only way the machine waits.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// EventSink receives transitions and pipeline results.
type EventSink interface {
	Publish(ev Event)
}

// Devices are the collaborators a Machine drives. Clock and Events may be nil.
type Devices struct {
	Sensor    MotionSensor
	Buttons   ButtonSource
	Indicator IndicatorSink
	Clock     Clock
	Events    EventSink
}

// RealClock sleeps on the wall clock and wakes early on cancellation.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type discardEvents struct{}

func (discardEvents) Publish(Event) {}
