package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/scheduling"
)

const roomsKeyPrefix = "spec-rooms:"

// EligibleRooms wraps a scheduling.Gateway and caches the room set of each
// specialization. Cache failures fall back to the wrapped gateway.
type EligibleRooms struct {
	scheduling.Gateway
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

func NewEligibleRooms(next scheduling.Gateway, store Store, ttl time.Duration, log zerolog.Logger) *EligibleRooms {
	return &EligibleRooms{Gateway: next, store: store, ttl: ttl, log: log}
}

func roomsKey(specializationID string) string {
	return roomsKeyPrefix + specializationID
}

func (c *EligibleRooms) FindRoomsForSpecialization(ctx context.Context, specializationID string) ([]models.Room, error) {
	key := roomsKey(specializationID)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var rooms []models.Room
		jsonErr := json.Unmarshal(raw, &rooms)
		if jsonErr == nil {
			return rooms, nil
		}
		c.log.Warn().Err(jsonErr).Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, ErrMiss):
		c.log.Warn().Err(err).Str("key", key).Msg("room cache read failed")
	}

	rooms, err := c.Gateway.FindRoomsForSpecialization(ctx, specializationID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(rooms); err == nil {
		if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("room cache write failed")
		}
	}
	return rooms, nil
}

func (c *EligibleRooms) IsRoomEligibleForSpecialization(ctx context.Context, roomID, specializationID string) (bool, error) {
	rooms, err := c.FindRoomsForSpecialization(ctx, specializationID)
	if err != nil {
		return false, err
	}
	for _, r := range rooms {
		if r.ID == roomID {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the cached room sets of the given specializations.
func (c *EligibleRooms) Invalidate(ctx context.Context, specializationIDs ...string) {
	if len(specializationIDs) == 0 {
		return
	}
	keys := make([]string, len(specializationIDs))
	for i, id := range specializationIDs {
		keys[i] = roomsKey(id)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("room cache invalidation failed")
	}
}
