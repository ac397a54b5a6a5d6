// Package notification provides Notifier implementations for the SLA
// engine. The engine stays agnostic to the delivery channel: escalation
// events can be logged or published to a Redis channel for downstream
// consumers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/urgentline/sla-server/internal/util"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

type Configuration struct {
	Type         string `yaml:"type" validate:"omitempty,oneof=log redis"`
	RedisAddress string `yaml:"redis-address"`
	RedisChannel string `yaml:"redis-channel"`
}

// LogNotifier writes escalation events to the structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
	}
}

func (n *LogNotifier) Notify(ctx context.Context, notification aggregates.Notification) error {
	n.logger.Warn("SLA escalation",
		slog.String("severity", string(notification.Severity)),
		slog.String("correlation-id", notification.CorrelationID),
		slog.String("type-id", notification.TypeID),
		slog.Duration("elapsed", notification.Elapsed),
		slog.Duration("threshold", notification.Threshold))
	return nil
}

type event struct {
	ID            string `json:"id"`
	Severity      string `json:"severity"`
	CorrelationID string `json:"correlation-id"`
	TypeID        string `json:"type-id"`
	ElapsedMS     int64  `json:"elapsed-ms"`
	ThresholdMS   int64  `json:"threshold-ms"`
}

// RedisNotifier publishes escalation events to a Redis channel.
type RedisNotifier struct {
	logger  *slog.Logger
	client  *redis.Client
	channel string
}

func NewRedisNotifier(logger *slog.Logger, config Configuration) (*RedisNotifier, error) {
	if config.RedisAddress == "" {
		return nil, fmt.Errorf("missing redis address in the notification configuration")
	}
	channel := config.RedisChannel
	if channel == "" {
		channel = "sla-escalations"
	}
	client := redis.NewClient(&redis.Options{
		Addr: config.RedisAddress,
	})
	return &RedisNotifier{
		logger:  logger,
		client:  client,
		channel: channel,
	}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, notification aggregates.Notification) error {
	payload, err := json.Marshal(event{
		ID:            util.NewUUID(),
		Severity:      string(notification.Severity),
		CorrelationID: notification.CorrelationID,
		TypeID:        notification.TypeID,
		ElapsedMS:     notification.Elapsed.Milliseconds(),
		ThresholdMS:   notification.Threshold.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("fail to serialize the escalation event: %w", err)
	}
	err = n.client.Publish(ctx, n.channel, payload).Err()
	if err != nil {
		return fmt.Errorf("fail to publish the escalation event: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
