package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const bridgeChannel = "health:signals"

type envelope struct {
	Origin string `json:"origin"`
	Signal string `json:"signal"`
	Detail Detail `json:"detail,omitempty"`
}

// RedisBridge relays bus signals between service instances over Redis pub/sub.
// It plays the part the native storage event plays between browser tabs:
// best-effort, fire-and-forget, no replay for instances that were down.
type RedisBridge struct {
	client *redis.Client
	bus    *Bus
	id     string
	logger zerolog.Logger
	cancel context.CancelFunc
}

func NewRedisBridge(url string, bus *Bus, logger zerolog.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBridge{
		client: client,
		bus:    bus,
		id:     uuid.New().String(),
		logger: logger,
	}, nil
}

// Start forwards local publishes to Redis and re-emits remote signals on the
// local bus. Signals originated by this instance are skipped to avoid loops.
func (b *RedisBridge) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)

	for _, signal := range []string{
		SignalAllReportsUpdated,
		SignalReportsUpdated,
		SignalConsultationsUpdated,
		SignalUsersUpdated,
	} {
		sig := signal
		b.bus.Subscribe(sig, func(_ string, detail Detail) {
			if detail != nil && detail["__origin"] == b.id {
				return
			}
			b.forward(ctx, sig, detail)
		})
	}

	go b.receive(ctx)
}

func (b *RedisBridge) forward(ctx context.Context, signal string, detail Detail) {
	payload, err := json.Marshal(envelope{Origin: b.id, Signal: signal, Detail: detail})
	if err != nil {
		return
	}
	if err := b.client.Publish(ctx, bridgeChannel, payload).Err(); err != nil {
		b.logger.Warn().Err(err).Str("signal", signal).Msg("failed to forward signal to redis")
	}
}

func (b *RedisBridge) receive(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, bridgeChannel)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.logger.Warn().Err(err).Msg("failed to decode bridged signal")
			continue
		}
		if env.Origin == b.id {
			continue
		}

		detail := env.Detail
		if detail == nil {
			detail = Detail{}
		}
		detail["__origin"] = b.id
		b.bus.publish(env.Signal, detail, "remote")
	}
}

func (b *RedisBridge) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return b.client.Close()
}
