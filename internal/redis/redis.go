package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lightningtracker/internal/model"

	"github.com/redis/go-redis/v9"
)

const ViewportChannelPrefix = "viewport"

// NewClient parses redisURL, connects and pings the server
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")
	return client, nil
}

// ViewportMessage is the payload published on every viewport update
type ViewportMessage struct {
	SessionID string              `json:"session_id"`
	Viewport  model.ViewportState `json:"viewport"`
	At        int64               `json:"at"`
}

// ViewportPublisher fans viewport updates out to re-render subscribers
type ViewportPublisher struct {
	client *redis.Client
}

// NewViewportPublisher creates a publisher on top of client
func NewViewportPublisher(client *redis.Client) *ViewportPublisher {
	return &ViewportPublisher{client: client}
}

// ViewportChannel returns the pub/sub channel of a session
func ViewportChannel(sessionID string) string {
	return fmt.Sprintf("%s:%s", ViewportChannelPrefix, sessionID)
}

// PublishViewport publishes the state on the session channel
func (p *ViewportPublisher) PublishViewport(ctx context.Context, sessionID string, state model.ViewportState) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := json.Marshal(ViewportMessage{
		SessionID: sessionID,
		Viewport:  state,
		At:        time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, ViewportChannel(sessionID), data).Err()
}

// Close closes the underlying Redis client
func (p *ViewportPublisher) Close() error {
	if p.client != nil {
		log.Println("Closing Redis connection...")
		return p.client.Close()
	}
	return nil
}
