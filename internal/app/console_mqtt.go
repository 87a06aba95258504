package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/telemetry"
)

// RunConsoleMQTT prints every lock event until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole, cfg.MQTTUsername, cfg.MQTTPassword)
	if err != nil {
		return err
	}

	token := client.Subscribe(cfg.TopicLockEvents, 1, func(_ mqtt.Client, msg mqtt.Message) {
		printEvent(os.Stdout, msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicLockEvents)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func printEvent(w io.Writer, payload []byte) {
	var env telemetry.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("console: event unmarshal error: %v", err)
		return
	}
	fmt.Fprintln(w, formatEvent(env))
}

func formatEvent(env telemetry.Envelope) string {
	ts := env.Time.Format("15:04:05.000")
	switch env.Kind {
	case lock.EventTransition:
		return fmt.Sprintf("[STATE] %s %s  %s -> %s", ts, env.Device, env.From, env.To)
	case lock.EventRecorded:
		return fmt.Sprintf("[CODE ] %s %s  captured=%d size=%d", ts, env.Device, env.Captured, env.Size)
	case lock.EventScored:
		verdict := "REJECT"
		if env.Match {
			verdict = "MATCH"
		}
		line := fmt.Sprintf("[SCORE] %s %s  %-6s distance=%.3f captured=%d size=%d",
			ts, env.Device, verdict, env.Distance, env.Captured, env.Size)
		if env.Error != "" {
			line += " error=" + env.Error
		}
		return line
	}
	return fmt.Sprintf("[?????] %s %s  kind=%s", ts, env.Device, env.Kind)
}
