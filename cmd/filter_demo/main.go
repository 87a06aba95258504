package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/app"
)

// filter_demo prints a CSV of the mock gesture before and after smoothing:
//
//	go run ./cmd/filter_demo > data.csv
func main() {
	samples := flag.Int("samples", app.DemoSamples, "number of samples")
	window := flag.Int("window", app.DemoWindow, "moving average window")
	noise := flag.Float64("noise", app.DemoNoise, "noise amplitude")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Parse()

	if err := app.RunFilterDemo(os.Stdout, *samples, *window, *noise, *seed); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
