package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// SlotCache is a read-through cache for a doctor's free slots. Slot
// listings are the hottest read path and tolerate brief staleness; the
// TTL bounds it and every slot mutation invalidates the doctor's entry.
// A nil *SlotCache is valid and disables caching.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewSlotCache(url string, ttl time.Duration, logger zerolog.Logger) (*SlotCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SlotCache{client: client, ttl: ttl, logger: logger}, nil
}

func slotKey(doctorID uuid.UUID) string {
	return "slots:free:" + doctorID.String()
}

// GetFreeSlots returns the cached free slots for a doctor, if present.
func (c *SlotCache) GetFreeSlots(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, slotKey(doctorID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("slot cache read failed")
		}
		return nil, false
	}

	var slots []*model.Availability
	if err := json.Unmarshal(payload, &slots); err != nil {
		c.logger.Warn().Err(err).Msg("slot cache entry corrupt, dropping")
		c.client.Del(ctx, slotKey(doctorID))
		return nil, false
	}
	return slots, true
}

// SetFreeSlots stores a doctor's free slots. Failures are logged and
// swallowed; the cache is never allowed to fail a request.
func (c *SlotCache) SetFreeSlots(ctx context.Context, doctorID uuid.UUID, slots []*model.Availability) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal slots for cache")
		return
	}

	if err := c.client.Set(ctx, slotKey(doctorID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("slot cache write failed")
	}
}

// Invalidate drops a doctor's cached free slots after any slot mutation.
func (c *SlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, slotKey(doctorID)).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("slot cache invalidation failed")
	}
}

func (c *SlotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
