package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/telemetry"
)

const recentEvents = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is sent by the browser.
type WSMessage struct {
	Action string `json:"action"` // press
	Button string `json:"button,omitempty"`
}

// WSResponse is pushed to the browser.
type WSResponse struct {
	Type    string                  `json:"type"` // hello, event, state, error
	Event   *telemetry.Envelope     `json:"event,omitempty"`
	State   *telemetry.StateMessage `json:"state,omitempty"`
	Message string                  `json:"message,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(r WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(r)
}

// WebServer mirrors the lock's MQTT traffic to browsers and forwards their
// button presses back.
type WebServer struct {
	device string
	press  func(telemetry.ButtonMessage) error

	mu      sync.RWMutex
	state   *telemetry.StateMessage
	events  []telemetry.Envelope
	clients map[*wsClient]struct{}
	static  http.Handler
}

// NewWebServer serves static files from dir; empty dir disables them.
func NewWebServer(device, dir string, press func(telemetry.ButtonMessage) error) *WebServer {
	s := &WebServer{
		device:  device,
		press:   press,
		clients: make(map[*wsClient]struct{}),
	}
	if dir != "" {
		s.static = http.FileServer(http.Dir(dir))
	}
	return s
}

func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/ws", s.handleWS)
	if s.static != nil {
		mux.Handle("/", s.static)
	}
	return mux
}

// HandleEventPayload stores and broadcasts one events-topic message.
func (s *WebServer) HandleEventPayload(payload []byte) {
	var env telemetry.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("web: event unmarshal error: %v", err)
		return
	}

	s.mu.Lock()
	s.events = append(s.events, env)
	if len(s.events) > recentEvents {
		s.events = s.events[len(s.events)-recentEvents:]
	}
	s.mu.Unlock()

	s.broadcast(WSResponse{Type: "event", Event: &env})
}

// HandleStatePayload stores and broadcasts one state-topic message.
func (s *WebServer) HandleStatePayload(payload []byte) {
	var st telemetry.StateMessage
	if err := json.Unmarshal(payload, &st); err != nil {
		log.Printf("web: state unmarshal error: %v", err)
		return
	}

	s.mu.Lock()
	s.state = &st
	s.mu.Unlock()

	s.broadcast(WSResponse{Type: "state", State: &st})
}

func (s *WebServer) broadcast(r WSResponse) {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(r); err != nil {
			log.Printf("web: websocket write error: %v", err)
			s.drop(c)
		}
	}
}

func (s *WebServer) drop(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

func (s *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()

	if st == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

func (s *WebServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := append([]telemetry.Envelope(nil), s.events...)
	s.mu.RUnlock()

	if events == nil {
		events = []telemetry.Envelope{}
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	st := s.state
	s.mu.Unlock()
	defer s.drop(c)

	if err := c.send(WSResponse{Type: "hello", State: st}); err != nil {
		return
	}

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket read error: %v", err)
			}
			return
		}
		if err := s.handleMessage(msg); err != nil {
			if err := c.send(WSResponse{Type: "error", Message: err.Error()}); err != nil {
				return
			}
		}
	}
}

func (s *WebServer) handleMessage(msg WSMessage) error {
	switch msg.Action {
	case "press":
		b, err := lock.ParseButton(msg.Button)
		if err != nil {
			return err
		}
		return s.press(telemetry.ButtonMessage{Button: b, Device: s.device})
	}
	return fmt.Errorf("unknown action %q", msg.Action)
}

// RunWeb serves the web UI, fed from the lock's MQTT topics.
func RunWeb(cfg *config.Config) error {
	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb, cfg.MQTTUsername, cfg.MQTTPassword)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	press := func(m telemetry.ButtonMessage) error {
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		token := client.Publish(cfg.TopicLockButtons, 1, false, payload)
		token.Wait()
		return token.Error()
	}
	srv := NewWebServer(cfg.DeviceName, "web", press)

	subs := map[string]func([]byte){
		cfg.TopicLockEvents: srv.HandleEventPayload,
		cfg.TopicLockState:  srv.HandleStatePayload,
	}
	for topic, handle := range subs {
		token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			handle(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to MQTT topic %s", topic)
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
