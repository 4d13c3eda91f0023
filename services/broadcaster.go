package services

import (
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"waitlist-system/config"
	"waitlist-system/monitoring"
	"waitlist-system/utils"
)

// Event kinds published on a tenant's channel. Payloads are invalidation
// hints, not authoritative deltas; clients refetch the queue on receipt.
const (
	EventEntryCreated = "entry_created"
	EventEntryUpdated = "entry_updated"
)

// Publisher is the fan-out surface the queue service depends on. Publishing
// never reports failure to the caller; the store remains the source of truth.
type Publisher interface {
	Publish(tenantID, event string, payload map[string]any)
}

// Broadcaster owns the process-wide PubNub connection. It is constructed once
// at startup and torn down with Close; nothing else holds connection state.
type Broadcaster struct {
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewBroadcaster(cfg *config.Config) *Broadcaster {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
	pnCfg.PublishKey = cfg.PubNubPublishKey
	pnCfg.SubscribeKey = cfg.PubNubSubscribeKey
	pnCfg.SecretKey = cfg.PubNubSecretKey

	return &Broadcaster{
		pn:      pubnub.NewPubNub(pnCfg),
		breaker: utils.NewCircuitBreaker("pubnub"),
	}
}

// Publish fans the event out to every session subscribed to the tenant's
// channel. Delivery is at-most-once and asynchronous relative to the mutation
// that triggered it; failures are logged and counted, never returned.
func (b *Broadcaster) Publish(tenantID, event string, payload map[string]any) {
	channel := fmt.Sprintf("restaurant-%s", tenantID)

	message := map[string]any{"type": event}
	for k, v := range payload {
		message[k] = v
	}

	go func() {
		err := b.breaker.Execute(func() error {
			_, _, err := b.pn.Publish().
				Channel(channel).
				Message(message).
				Execute()
			return err
		})
		if err != nil {
			slog.Error("broadcast dropped", "channel", channel, "event", event, "error", err)
			monitoring.TrackBroadcastFailure(tenantID)
		}
	}()
}

// Close tears the connection down. Call once during shutdown.
func (b *Broadcaster) Close() {
	b.pn.Destroy()
}
