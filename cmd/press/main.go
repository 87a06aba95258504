package main

import (
	"encoding/json"
	"flag"
	"log"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/telemetry"
)

// press sends one remote button press to a running lock.
func main() {
	configPath := flag.String("config", "gesture_lock_config.txt", "path to the config file")
	button := flag.String("button", "left", "button to press: left or right")
	flag.Parse()

	b, err := lock.ParseButton(*button)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole+"-press", cfg.MQTTUsername, cfg.MQTTPassword)
	if err != nil {
		log.Fatalf("MQTT connect error: %v", err)
	}
	defer client.Disconnect(250)

	payload, err := json.Marshal(telemetry.ButtonMessage{Button: b, Device: cfg.DeviceName})
	if err != nil {
		log.Fatalf("json marshal error: %v", err)
	}

	token := client.Publish(cfg.TopicLockButtons, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.Fatalf("MQTT publish error: %v", token.Error())
	}
	log.Printf("pressed %s on %s", b, cfg.DeviceName)
}
