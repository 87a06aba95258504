// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry carries lock events and remote button presses over MQTT.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

const publishTimeout = 2 * time.Second

// Envelope is the payload on the events topic.
type Envelope struct {
	ID     string `json:"id"`
	Device string `json:"device"`
	lock.Event
}

// StateMessage is the retained payload on the state topic.
type StateMessage struct {
	Device string     `json:"device"`
	State  lock.State `json:"state"`
	Since  time.Time  `json:"since"`
}

// Publisher sends lock events to the broker. It implements lock.EventSink.
type Publisher struct {
	client      mqtt.Client
	device      string
	eventsTopic string
	stateTopic  string
}

func NewPublisher(client mqtt.Client, device, eventsTopic, stateTopic string) *Publisher {
	return &Publisher{
		client:      client,
		device:      device,
		eventsTopic: eventsTopic,
		stateTopic:  stateTopic,
	}
}

// Publish never blocks the lock for longer than publishTimeout per message;
// failures are logged and dropped.
func (p *Publisher) Publish(ev lock.Event) {
	env := Envelope{ID: uuid.NewString(), Device: p.device, Event: ev}
	if err := p.send(p.eventsTopic, false, env); err != nil {
		log.Printf("telemetry: event %s: %v", ev.Kind, err)
	}

	if ev.Kind != lock.EventTransition || p.stateTopic == "" {
		return
	}
	st := StateMessage{Device: p.device, State: ev.To, Since: ev.Time}
	if err := p.send(p.stateTopic, true, st); err != nil {
		log.Printf("telemetry: state %s: %v", ev.To, err)
	}
}

func (p *Publisher) send(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Connect dials the broker with the settings the lock binaries share.
func Connect(broker, clientID, username, password string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// ConnectRetry keeps trying in the background; publishes queue meanwhile.
		log.Printf("telemetry: broker %s not reachable yet, retrying", broker)
		return client, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", broker, err)
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)
	return client, nil
}
