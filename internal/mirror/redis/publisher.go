// Package redis mirrors Hub broadcasts to a Redis Pub/Sub channel for
// external observers (e.g. a dashboard). It is write-only from the Hub's
// perspective and never feeds anything back into round state — the Hub
// remains the sole writer.
package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultChannel = "quizhub:broadcast"

type envelope struct {
	Event     string `json:"event"`
	Payload   any    `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher implements hub.Mirror.
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher returns a Publisher writing to channel (defaultChannel if empty).
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = defaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish mirrors eventName/payload to the configured channel. It never
// blocks the caller — the network round trip runs in its own goroutine —
// and a failure is only ever logged.
func (p *Publisher) Publish(eventName string, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		data, err := json.Marshal(envelope{Event: eventName, Payload: payload, Timestamp: time.Now().UnixMilli()})
		if err != nil {
			log.Printf("mirror: failed to marshal %s: %v", eventName, err)
			return
		}
		if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
			log.Printf("mirror: failed to publish %s: %v", eventName, err)
		}
	}()
}
