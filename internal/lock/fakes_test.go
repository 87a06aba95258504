package lock

import (
	"context"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration

	// cancel is called once len(slept) reaches cancelAt.
	cancelAt int
	cancel   context.CancelFunc
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	if c.cancel != nil && len(c.slept) >= c.cancelAt {
		c.cancel()
		return ctx.Err()
	}
	return nil
}

func (c *fakeClock) count(d time.Duration) int {
	n := 0
	for _, s := range c.slept {
		if s == d {
			n++
		}
	}
	return n
}

// scriptedButtons answers each poll from a per-button queue, then reports
// released once the queue is empty.
type scriptedButtons struct {
	script map[Button][]bool
	polls  map[Button]int
}

func newScriptedButtons() *scriptedButtons {
	return &scriptedButtons{script: map[Button][]bool{}, polls: map[Button]int{}}
}

func (b *scriptedButtons) push(btn Button, levels ...bool) {
	b.script[btn] = append(b.script[btn], levels...)
}

// pressAfter scripts a recording that is stopped by btn after n captures.
func (b *scriptedButtons) pressAfter(btn Button, n int) {
	b.push(btn, false) // level when recording starts
	for i := 1; i < n; i++ {
		b.push(btn, false)
	}
	b.push(btn, true)
}

func (b *scriptedButtons) Pressed(btn Button) bool {
	b.polls[btn]++
	q := b.script[btn]
	if len(q) == 0 {
		return false
	}
	b.script[btn] = q[1:]
	return q[0]
}

type fakeSensor struct {
	sample gesture.Sample
	reads  int
	failOn func(n int) bool
}

func (s *fakeSensor) Read() (gesture.Sample, error) {
	s.reads++
	if s.failOn != nil && s.failOn(s.reads) {
		return gesture.Sample{}, errSensor
	}
	return s.sample, nil
}

type sensorError string

func (e sensorError) Error() string { return string(e) }

const errSensor = sensorError("bus timeout")

type fakeIndicator struct {
	shown []Indicator
	tones []int
}

func (f *fakeIndicator) Show(ind Indicator) error {
	f.shown = append(f.shown, ind)
	return nil
}

func (f *fakeIndicator) Tone(freqHz int, _ time.Duration) error {
	f.tones = append(f.tones, freqHz)
	return nil
}

type eventLog struct {
	events []Event
}

func (l *eventLog) Publish(ev Event) { l.events = append(l.events, ev) }

func (l *eventLog) ofKind(k EventKind) []Event {
	var out []Event
	for _, ev := range l.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

type rig struct {
	m       *Machine
	clock   *fakeClock
	buttons *scriptedButtons
	sensor  *fakeSensor
	ind     *fakeIndicator
	events  *eventLog
}

func newRig() *rig { return newRigWith(DefaultSettings()) }

func newRigWith(settings Settings) *rig {
	r := &rig{
		clock:   newFakeClock(),
		buttons: newScriptedButtons(),
		sensor:  &fakeSensor{sample: gesture.Sample{X: 1}},
		ind:     &fakeIndicator{},
		events:  &eventLog{},
	}
	r.m = NewMachine(Devices{
		Sensor:    r.sensor,
		Buttons:   r.buttons,
		Indicator: r.ind,
		Clock:     r.clock,
		Events:    r.events,
	}, settings)
	return r
}
