package panel

import (
	"fmt"
	"image/color"
	"time"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

var (
	colorOff    = color.NRGBA{A: 0xFF}
	colorBlue   = color.NRGBA{B: 0xFF, A: 0xFF}
	colorYellow = color.NRGBA{R: 0x80, G: 0x80, A: 0xFF}
	colorRed    = color.NRGBA{R: 0xFF, A: 0xFF}
	colorGreen  = color.NRGBA{G: 0xFF, A: 0xFF}
)

// Color is the ring color for an indicator. The ring is dark while idle
// and while the code is recorded; the LED covers that state.
func Color(ind lock.Indicator) color.NRGBA {
	switch ind {
	case lock.IndicatorReady:
		return colorBlue
	case lock.IndicatorEntering:
		return colorYellow
	case lock.IndicatorFailed:
		return colorRed
	case lock.IndicatorSuccess:
		return colorGreen
	default:
		return colorOff
	}
}

// PixelRing is a WS2812 ring driven over SPI.
type PixelRing struct {
	port  spi.PortCloser
	dev   *nrzled.Dev
	count int
	buf   []byte
}

func NewPixelRing(spiDev string, count int) (*PixelRing, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pixels: periph host init: %w", err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("pixels: SPI open %s: %w", spiDev, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = count
	opts.Channels = 3
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("pixels: init: %w", err)
	}

	return &PixelRing{port: port, dev: dev, count: count, buf: make([]byte, 3*count)}, nil
}

func (r *PixelRing) Show(ind lock.Indicator) error {
	fillRGB(r.buf, Color(ind))
	if _, err := r.dev.Write(r.buf); err != nil {
		return fmt.Errorf("pixels: write: %w", err)
	}
	return nil
}

func (r *PixelRing) Tone(int, time.Duration) error { return nil }

// Close blanks the ring and releases the SPI port.
func (r *PixelRing) Close() error {
	_ = r.Show(lock.IndicatorOff)
	return r.port.Close()
}

func fillRGB(buf []byte, c color.NRGBA) {
	for i := 0; i+2 < len(buf); i += 3 {
		buf[i], buf[i+1], buf[i+2] = c.R, c.G, c.B
	}
}
