// Package panel is the hardware side of the lock: buttons, LED, buzzer,
// pixel ring and OLED, each behind the interfaces of package lock.
package panel

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// GPIOButtons reads two active-high push buttons.
type GPIOButtons struct {
	pins [2]gpio.PinIn
}

// NewGPIOButtons configures both pins as pulled-down inputs.
func NewGPIOButtons(leftPin, rightPin string) (*GPIOButtons, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("buttons: periph host init: %w", err)
	}

	var b GPIOButtons
	for i, name := range []string{leftPin, rightPin} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("buttons: %s pin %q not found", lock.Button(i), name)
		}
		if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("buttons: %s pin %q input: %w", lock.Button(i), name, err)
		}
		b.pins[i] = p
	}
	return &b, nil
}

// Pressed reports whether btn is currently held down.
func (b *GPIOButtons) Pressed(btn lock.Button) bool {
	if int(btn) >= len(b.pins) {
		return false
	}
	return b.pins[btn].Read() == gpio.High
}
