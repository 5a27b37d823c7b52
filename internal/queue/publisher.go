package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quillblog/internal/logging"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event CommentEvent) (messageID string, err error)
}

// Broadcaster fans an event out to live subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel string, event CommentEvent) error
}

// RedisPublisher implements Publisher (Streams) and Broadcaster (Pub/Sub).
type RedisPublisher struct {
	client *redis.Client
	log    *logrus.Entry
}

// NewPublisher creates a new publisher backed by Redis.
func NewPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, log: logging.LogService("Publisher")}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event CommentEvent) (string, error) {
	startTime := time.Now()
	log := p.log.WithFields(logrus.Fields{"stream": stream, "type": event.Type})

	values, err := event.ToMap()
	if err != nil {
		log.WithError(err).Error("Publish FAILED")
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		log.WithError(err).Error("Publish FAILED")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.WithFields(logrus.Fields{
		"msg_id":   messageID,
		"duration": time.Since(startTime),
	}).Debug("Publish OK")
	return messageID, nil
}

// Broadcast publishes the event JSON on a Pub/Sub channel.
// Nobody listening is not an error.
func (p *RedisPublisher) Broadcast(ctx context.Context, channel string, event CommentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	receivers, err := p.client.Publish(ctx, channel, data).Result()
	if err != nil {
		p.log.WithError(err).WithField("channel", channel).Error("Broadcast FAILED")
		return fmt.Errorf("publish to channel: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"channel":   channel,
		"type":      event.Type,
		"receivers": receivers,
	}).Debug("Broadcast OK")
	return nil
}
