package notify

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/api/metrics"
)

const (
	// Channel carries notifications between instances.
	// Payload format: <instance_id>|<user_id>
	Channel        = "toolbox:changes"
	publishTimeout = 2 * time.Second

	minResubscribe = time.Second
	maxResubscribe = 30 * time.Second
)

// RedisBridge relays notifications between instances over Redis pub/sub.
// Delivery is fire-and-forget.
type RedisBridge struct {
	client     *redis.Client
	local      *Broadcaster
	instanceID string
	log        zerolog.Logger

	retryMin, retryMax time.Duration
}

func NewRedisBridge(client *redis.Client, local *Broadcaster, instanceID string, log zerolog.Logger) *RedisBridge {
	return &RedisBridge{
		client:     client,
		local:      local,
		instanceID: instanceID,
		log:        log,
		retryMin:   minResubscribe,
		retryMax:   maxResubscribe,
	}
}

// Publish sends userID to the other instances.
func (r *RedisBridge) Publish(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, Channel, formatMessage(r.instanceID, userID)).Err(); err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("change publish failed")
	}
}

// Run replays notifications from other instances into the local
// broadcaster until ctx is cancelled. A lost or failed subscription is
// logged and retried with backoff; local delivery keeps working meanwhile.
// Run only returns nil.
func (r *RedisBridge) Run(ctx context.Context) error {
	wait := r.retryMin
	for {
		err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			wait = r.retryMin
		}
		r.log.Warn().Err(err).Dur("retry_in", wait).Msg("change bridge disconnected")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		wait = min(wait*2, r.retryMax)
	}
}

// subscribe relays messages until the subscription ends. A nil error means
// it was established and later lost.
func (r *RedisBridge) subscribe(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info().Str("channel", Channel).Str("instance_id", r.instanceID).Msg("change bridge subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *RedisBridge) handle(payload string) {
	origin, userID, ok := parseMessage(payload)
	if !ok {
		r.log.Warn().Str("payload", payload).Msg("malformed change message")
		return
	}
	if origin == r.instanceID {
		return
	}
	r.local.Deliver(userID)
	metrics.NotificationsTotal.WithLabelValues("remote").Inc()
}

func formatMessage(instanceID, userID string) string {
	return instanceID + "|" + userID
}

func parseMessage(payload string) (origin, userID string, ok bool) {
	origin, userID, ok = strings.Cut(payload, "|")
	if !ok || origin == "" || userID == "" {
		return "", "", false
	}
	return origin, userID, true
}
