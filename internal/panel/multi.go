package panel

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// Multi forwards every call to each sink and joins their errors.
type Multi []lock.IndicatorSink

func (m Multi) Show(ind lock.Indicator) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Show(ind))
	}
	return errors.Join(errs...)
}

func (m Multi) Tone(freqHz int, d time.Duration) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Tone(freqHz, d))
	}
	return errors.Join(errs...)
}

// Close closes every sink that is an io.Closer.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Console prints indicator changes, for running without hardware.
type Console struct {
	W io.Writer
}

func (c Console) Show(ind lock.Indicator) error {
	_, err := fmt.Fprintf(c.W, "[LOCK] %-9s | %s\n", ind, screenLines(ind)[0])
	return err
}

func (c Console) Tone(freqHz int, d time.Duration) error {
	_, err := fmt.Fprintf(c.W, "[LOCK] beep %dHz %s\n", freqHz, d)
	return err
}
