package panel

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

const (
	oledWidth  = 128
	oledHeight = 64
	lineHeight = 13
)

// OLED shows the lock state as text on a 128x64 SSD1306.
type OLED struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// NewOLED opens the I²C bus (empty name selects the first one) and shows
// the splash screen.
func NewOLED(busName string) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: I2C open %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("display: init: %w", err)
	}

	o := &OLED{bus: bus, dev: dev}
	if err := o.draw([]string{"Gesture Lock", "", "starting..."}); err != nil {
		o.Close()
		return nil, fmt.Errorf("display: splash: %w", err)
	}
	return o, nil
}

func (o *OLED) Show(ind lock.Indicator) error {
	return o.draw(screenLines(ind))
}

func (o *OLED) Tone(int, time.Duration) error { return nil }

func (o *OLED) Close() error {
	_ = o.dev.Halt()
	return o.bus.Close()
}

func (o *OLED) draw(lines []string) error {
	img := renderLines(lines)
	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}

func screenLines(ind lock.Indicator) []string {
	switch ind {
	case lock.IndicatorRecording:
		return []string{"Recording code", "", "L: stop"}
	case lock.IndicatorReady:
		return []string{"Locked", "", "L: new code", "R: unlock"}
	case lock.IndicatorEntering:
		return []string{"Enter gesture", "", "R: stop"}
	case lock.IndicatorFailed:
		return []string{"Wrong gesture"}
	case lock.IndicatorSuccess:
		return []string{"Unlocked"}
	default:
		return []string{"No code set", "", "L: record"}
	}
}

func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		y := lineHeight * (i + 1)
		if y > oledHeight {
			break
		}
		drawer.Dot = fixed.P(0, y)
		drawer.DrawString(line)
	}
	return img
}
