package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
)

// TypeACC is the sentence type streamed by the accelerometer board:
//
//	$IIACC,<x>,<y>,<z>*CS
//
// with x, y and z in m/s².
const TypeACC = "ACC"

// ACC is one parsed acceleration sentence.
type ACC struct {
	nmea.BaseSentence
	X float64
	Y float64
	Z float64
}

func init() {
	if err := nmea.RegisterParser(TypeACC, parseACC); err != nil {
		panic(err)
	}
}

func parseACC(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	p.AssertType(TypeACC)
	return ACC{
		BaseSentence: s,
		X:            p.Float64(0, "x"),
		Y:            p.Float64(1, "y"),
		Z:            p.Float64(2, "z"),
	}, p.Err()
}

// ParseSample decodes one ACC sentence, checksum included.
func ParseSample(line string) (gesture.Sample, error) {
	sentence, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return gesture.Sample{}, err
	}
	acc, ok := sentence.(ACC)
	if !ok {
		return gesture.Sample{}, fmt.Errorf("serial: unexpected sentence %s", sentence.DataType())
	}
	return gesture.Sample{X: acc.X, Y: acc.Y, Z: acc.Z}, nil
}

// ErrNoSample is returned by SerialSource.Read before the first sentence
// arrives or when the board has stopped streaming.
var ErrNoSample = errors.New("serial: no recent sample")

// SerialSource reads ACC sentences in the background and hands out the most
// recent sample.
type SerialSource struct {
	rc     io.ReadCloser
	maxAge time.Duration

	mu     sync.Mutex
	last   gesture.Sample
	lastAt time.Time
	err    error
	done   chan struct{}
}

// NewSerialSource opens portName at baud and starts reading.
func NewSerialSource(portName string, baud int) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Printf("serial: accelerometer port opened on %s at %d baud", portName, baud)
	return newSerialSource(port, time.Second), nil
}

func newSerialSource(rc io.ReadCloser, maxAge time.Duration) *SerialSource {
	s := &SerialSource{rc: rc, maxAge: maxAge, done: make(chan struct{})}
	go s.readLoop()
	return s
}

func (s *SerialSource) readLoop() {
	defer close(s.done)
	reader := bufio.NewReader(s.rc)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Printf("serial: read error: %v", err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sample, err := ParseSample(line)
		if err != nil {
			// partial lines are common right after the port opens
			continue
		}

		s.mu.Lock()
		s.last = sample
		s.lastAt = time.Now()
		s.mu.Unlock()
	}
}

// Read returns the latest sample if it is fresh enough.
func (s *SerialSource) Read() (gesture.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastAt.IsZero() || time.Since(s.lastAt) > s.maxAge {
		if s.err != nil {
			return gesture.Sample{}, fmt.Errorf("%w: %v", ErrNoSample, s.err)
		}
		return gesture.Sample{}, ErrNoSample
	}
	return s.last, nil
}

// Close closes the port and waits for the reader to stop.
func (s *SerialSource) Close() error {
	err := s.rc.Close()
	<-s.done
	return err
}
