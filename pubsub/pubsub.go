package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"streamlit-analytics/cache"
	"streamlit-analytics/logger"
	"streamlit-analytics/models"
)

// Channel carries JSON encoded models.Event values.
const Channel = "analytics_events"

type HandlerFunc func(evt models.Event)

type PubSub struct {
	redisStore *cache.RedisStore
}

func NewPubSub(redisStore *cache.RedisStore) *PubSub {
	return &PubSub{redisStore: redisStore}
}

// Publish an event
func (ps *PubSub) Publish(ctx context.Context, evt models.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return ps.redisStore.Client.Publish(ctx, Channel, payload).Err()
}

// Subscribe confirms the subscription and then feeds every decodable event to
// handler from a background goroutine until ctx is cancelled.
func (ps *PubSub) Subscribe(ctx context.Context, handler HandlerFunc) error {
	sub := ps.redisStore.Client.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				evt, err := DecodeEvent(msg.Payload)
				if err != nil {
					logger.Log.WithError(err).Warn("dropping malformed event")
					continue
				}
				handler(evt)
			}
		}
	}()
	return nil
}

// DecodeEvent parses and validates one channel payload.
func DecodeEvent(payload string) (models.Event, error) {
	var evt models.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return models.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := evt.Validate(); err != nil {
		return models.Event{}, err
	}
	return evt, nil
}
