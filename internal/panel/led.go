package panel

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// LED drives the red recording LED and a piezo buzzer. Either pin may be
// empty.
type LED struct {
	led    gpio.PinOut
	buzzer gpio.PinOut

	mu      sync.Mutex
	silence *time.Timer // pending buzzer-off
}

func NewLED(ledPin, buzzerPin string) (*LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("led: periph host init: %w", err)
	}

	l := &LED{}
	if ledPin != "" {
		if l.led = gpioreg.ByName(ledPin); l.led == nil {
			return nil, fmt.Errorf("led: pin %q not found", ledPin)
		}
		if err := l.led.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("led: pin %q output: %w", ledPin, err)
		}
	}
	if buzzerPin != "" {
		if l.buzzer = gpioreg.ByName(buzzerPin); l.buzzer == nil {
			return nil, fmt.Errorf("led: buzzer pin %q not found", buzzerPin)
		}
		if err := l.buzzer.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("led: buzzer pin %q output: %w", buzzerPin, err)
		}
	}
	return l, nil
}

// Show lights the LED only while the unlock code is being recorded.
func (l *LED) Show(ind lock.Indicator) error {
	if l.led == nil {
		return nil
	}
	level := gpio.Low
	if ind == lock.IndicatorRecording {
		level = gpio.High
	}
	return l.led.Out(level)
}

// Tone starts a square wave on the buzzer and returns; a timer silences it
// after d. A new tone replaces one still playing.
func (l *LED) Tone(freqHz int, d time.Duration) error {
	if l.buzzer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.silence != nil {
		l.silence.Stop()
	}
	if err := l.buzzer.PWM(gpio.DutyHalf, physic.Frequency(freqHz)*physic.Hertz); err != nil {
		return fmt.Errorf("led: buzzer PWM: %w", err)
	}
	l.silence = time.AfterFunc(d, func() {
		if err := l.buzzer.Out(gpio.Low); err != nil {
			log.Printf("led: buzzer off: %v", err)
		}
	})
	return nil
}

// Close turns both outputs off.
func (l *LED) Close() error {
	var errs []error
	if l.led != nil {
		errs = append(errs, l.led.Out(gpio.Low))
	}
	if l.buzzer != nil {
		l.mu.Lock()
		if l.silence != nil {
			l.silence.Stop()
		}
		l.mu.Unlock()
		errs = append(errs, l.buzzer.Out(gpio.Low))
	}
	return errors.Join(errs...)
}
