package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// ButtonMessage is a remote press, e.g. from the web UI.
type ButtonMessage struct {
	Button lock.Button `json:"button"`
	Device string      `json:"device,omitempty"`
}

// RemoteButtons turns MQTT button messages into presses. A press stays
// latched until Pressed reports it once.
type RemoteButtons struct {
	mu      sync.Mutex
	pending map[lock.Button]bool
	device  string
}

// NewRemoteButtons subscribes to topic. Messages addressed to another device
// are ignored; an empty Device field matches every device.
func NewRemoteButtons(client mqtt.Client, topic, device string) (*RemoteButtons, error) {
	rb := &RemoteButtons{pending: make(map[lock.Button]bool), device: device}

	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		rb.handle(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: subscribe %s: %w", topic, err)
	}
	log.Printf("telemetry: listening for buttons on %s", topic)
	return rb, nil
}

func (rb *RemoteButtons) handle(payload []byte) {
	var m ButtonMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		log.Printf("telemetry: button payload: %v", err)
		return
	}
	if m.Device != "" && rb.device != "" && m.Device != rb.device {
		return
	}
	rb.Press(m.Button)
}

// Press latches b as pressed.
func (rb *RemoteButtons) Press(b lock.Button) {
	rb.mu.Lock()
	rb.pending[b] = true
	rb.mu.Unlock()
}

// Discard forgets every press not yet reported.
func (rb *RemoteButtons) Discard() {
	rb.mu.Lock()
	clear(rb.pending)
	rb.mu.Unlock()
}

func (rb *RemoteButtons) Pressed(b lock.Button) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	p := rb.pending[b]
	delete(rb.pending, b)
	return p
}

// EitherButtons reports a press when any source does.
type EitherButtons []lock.ButtonSource

func (e EitherButtons) Pressed(b lock.Button) bool {
	pressed := false
	for _, s := range e {
		// poll every source so latched presses are consumed
		if s.Pressed(b) {
			pressed = true
		}
	}
	return pressed
}

// Discard forwards to every source that latches presses.
func (e EitherButtons) Discard() {
	for _, s := range e {
		if l, ok := s.(lock.PressLatch); ok {
			l.Discard()
		}
	}
}
