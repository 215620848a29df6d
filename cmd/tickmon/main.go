package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/tickprog/pkg/env"
	"github.com/robotalks/tickprog/pkg/link/mqtt"
	"github.com/robotalks/tickprog/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/tickprog/"
)

func init() {
	if val := os.Getenv(env.EnvMQTT); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub(telemetry.Topic("+"), mqtt.Handler(func(topic string, payload []byte) {
		ev, err := telemetry.DecodeStageEvent(payload)
		if err != nil {
			log.Printf("%s: bad event: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, ev)
	}))
	<-(chan struct{})(nil)
}
