package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/sensors"
)

// Filter demo defaults: a noisy circle, smoothed over 5 samples.
const (
	DemoSamples = 500
	DemoNoise   = 0.1
	DemoWindow  = 5
)

// RunFilterDemo writes raw and smoothed samples of the mock gesture as CSV
// for plotting.
func RunFilterDemo(w io.Writer, samples, window int, noise float64, seed uint64) error {
	if samples <= 0 {
		return fmt.Errorf("filter demo: samples must be positive, got %d", samples)
	}

	src := sensors.NewMockSource(samples, noise, seed)
	raw := gesture.NewBuffer(samples)
	for i := 0; i < samples; i++ {
		s, err := src.Read()
		if err != nil {
			return fmt.Errorf("filter demo: read %d: %w", i, err)
		}
		raw.Set(i, s)
	}

	filtered := gesture.NewBuffer(samples)
	filtered.CopyFrom(raw)
	filtered.Smooth(window)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Index", "Raw_X", "Raw_Y", "Raw_Z", "Filtered_X", "Filtered_Y", "Filtered_Z"}); err != nil {
		return err
	}
	for i := 0; i < filtered.Size(); i++ {
		r, f := raw.At(i), filtered.At(i)
		row := []string{
			strconv.Itoa(i),
			ff(r.X), ff(r.Y), ff(r.Z),
			ff(f.X), ff(f.Y), ff(f.Z),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
