// Bridge mirrors device readings from the MQTT broker into Kafka so relay
// consumers on other hosts can serve them. Set MQTT_BROKER_URL, KAFKA_BROKERS,
// and KAFKA_TOPIC.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"silowatch/internal/config"
	"silowatch/internal/ingest"
	"silowatch/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("bridge: KAFKA_BROKERS is required")
	}

	producer := relay.NewProducer(brokers, cfg.KafkaTopic)
	defer producer.Close()

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = "silowatch-bridge-" + uuid.NewString()[:8]
	}
	mirror := ingest.NewMirror(cfg.MQTTBrokerURL, clientID, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("bridge: shutting down...")
		cancel()
	}()

	log.Printf("bridge: mirroring %s readings to kafka topic %s", cfg.MQTTBrokerURL, cfg.KafkaTopic)
	if err := mirror.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bridge: %v", err)
	}
	log.Println("bridge: stopped")
}
