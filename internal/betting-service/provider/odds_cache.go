package provider

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// OddsCache mantém no Redis as cotações sorteadas para cada evento, para que
// listagens repetidas vejam o mesmo mercado enquanto a entrada não expira.
type OddsCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewOddsCache(r *redis.Client, ttl time.Duration) *OddsCache {
	return &OddsCache{R: r, TTL: ttl}
}

func keyEvent(eventID int64) string { return "odds:event:" + strconv.FormatInt(eventID, 10) }

func (c *OddsCache) GetOdds(ctx context.Context, eventID int64) (map[int64]float64, bool, error) {
	b, err := c.R.Get(ctx, keyEvent(eventID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var odds map[int64]float64
	if err := json.Unmarshal(b, &odds); err != nil {
		return nil, false, err
	}
	return odds, true, nil
}

func (c *OddsCache) SetOdds(ctx context.Context, eventID int64, odds map[int64]float64) error {
	b, _ := json.Marshal(odds)
	return c.R.Set(ctx, keyEvent(eventID), b, c.TTL).Err()
}
