// Package notify delivers user-facing feedback from edit sessions. The
// engine itself has no UI; notifiers forward toast-level messages to
// whatever front end is listening.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slog logs notifications through the structured logger. It is the default
// sink and the fallback when no broker is configured.
type Slog struct{}

// NewSlog creates a logging notifier
func NewSlog() *Slog {
	return &Slog{}
}

// Success logs a success notification
func (n *Slog) Success(ctx context.Context, message string) {
	slog.InfoContext(ctx, "notification", "level", "success", "message", message)
}

// Failure logs a failure notification
func (n *Slog) Failure(ctx context.Context, message string) {
	slog.WarnContext(ctx, "notification", "level", "error", "message", message)
}

// event is the wire format published to the notification channel
type event struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Channel is the pub/sub channel front ends subscribe to for toasts
const Channel = "listing:notifications"

// Redis publishes notifications over Redis pub/sub so connected dashboard
// clients can render them as toasts. Publish failures degrade to log lines;
// a notification is never worth failing the operation it reports on.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a pub/sub notifier on an existing client
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Success publishes a success notification
func (n *Redis) Success(ctx context.Context, message string) {
	n.publish(ctx, event{Level: "success", Message: message, At: time.Now().UTC()})
}

// Failure publishes a failure notification
func (n *Redis) Failure(ctx context.Context, message string) {
	n.publish(ctx, event{Level: "error", Message: message, At: time.Now().UTC()})
}

func (n *Redis) publish(ctx context.Context, e event) {
	payload, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to encode notification", "error", err)
		return
	}

	if err := n.client.Publish(ctx, Channel, payload).Err(); err != nil {
		slog.Warn("failed to publish notification", "error", err, "level", e.Level, "message", e.Message)
	}
}
