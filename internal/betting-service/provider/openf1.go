package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// openf1Session e openf1Driver espelham os payloads da API OpenF1.
type openf1Session struct {
	SessionKey  int64  `json:"session_key"`
	SessionType string `json:"session_type"`
	Year        int    `json:"year"`
	CountryName string `json:"country_name"`
}

type openf1Driver struct {
	DriverNumber int64  `json:"driver_number"`
	FullName     string `json:"full_name"`
}

// OpenF1 consome o catálogo de sessões e pilotos da OpenF1 e monta os
// mercados apostáveis. As cotações são sorteadas e fixadas no cache por TTL.
// Falha do upstream nunca propaga: o resultado vira lista vazia.
type OpenF1 struct {
	BaseURL string
	Log     *zap.Logger
	HTTP    *http.Client
	Limiter *rate.Limiter
	Odds    *OddsCache // opcional; sem cache as cotações variam por chamada
}

func NewOpenF1(baseURL string, log *zap.Logger, limiter *rate.Limiter, odds *OddsCache) *OpenF1 {
	return &OpenF1{
		BaseURL: baseURL,
		Log:     log,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		Limiter: limiter,
		Odds:    odds,
	}
}

// ListEvents lista sessões filtradas e anexa o mercado de pilotos de cada uma.
func (c *OpenF1) ListEvents(ctx context.Context, sessionType, year, country string) ([]EventDetails, error) {
	sessions, err := c.fetchSessions(ctx, sessionType, year, country)
	if err != nil {
		c.Log.Warn("openf1 sessions fetch failed, returning empty list", zap.Error(err))
		return []EventDetails{}, nil
	}

	out := make([]EventDetails, 0, len(sessions))
	for _, s := range sessions {
		drivers, err := c.fetchDrivers(ctx, s.SessionKey)
		if err != nil {
			c.Log.Warn("openf1 drivers fetch failed",
				zap.Int64("sessionKey", s.SessionKey), zap.Error(err))
			drivers = nil
		}

		out = append(out, EventDetails{
			ID:          s.SessionKey,
			SessionType: s.SessionType,
			Year:        s.Year,
			Country:     s.CountryName,
			Markets:     c.buildMarket(ctx, s.SessionKey, drivers),
		})
	}
	return out, nil
}

func (c *OpenF1) fetchSessions(ctx context.Context, sessionType, year, country string) ([]openf1Session, error) {
	q := url.Values{}
	if sessionType != "" {
		q.Set("session_type", sessionType)
	}
	if year != "" {
		q.Set("year", year)
	}
	if country != "" {
		q.Set("country_name", country)
	}

	var sessions []openf1Session
	if err := c.getJSON(ctx, "/sessions", q, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *OpenF1) fetchDrivers(ctx context.Context, sessionKey int64) ([]openf1Driver, error) {
	q := url.Values{}
	q.Set("session_key", fmt.Sprintf("%d", sessionKey))

	var drivers []openf1Driver
	if err := c.getJSON(ctx, "/drivers", q, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// getJSON aplica o rate limit e tenta até 3 vezes com backoff linear.
func (c *OpenF1) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	const retries = 3
	var lastErr error
	for i := 0; i < retries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(300*i) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		if lastErr = c.doOnce(ctx, u, dst); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (c *OpenF1) doOnce(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("openf1 http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(dst)
}

// buildMarket monta as cotações do evento, reutilizando as já cacheadas.
func (c *OpenF1) buildMarket(ctx context.Context, eventID int64, drivers []openf1Driver) []DriverMarket {
	var cached map[int64]float64
	if c.Odds != nil {
		if odds, ok, err := c.Odds.GetOdds(ctx, eventID); err != nil {
			c.Log.Warn("odds cache read failed", zap.Error(err))
		} else if ok {
			cached = odds
		}
	}

	fresh := false
	if cached == nil {
		cached = make(map[int64]float64, len(drivers))
		fresh = true
	}

	market := make([]DriverMarket, 0, len(drivers))
	for _, d := range drivers {
		odd, ok := cached[d.DriverNumber]
		if !ok {
			odd = randomOdds()
			cached[d.DriverNumber] = odd
			fresh = true
		}
		market = append(market, DriverMarket{
			DriverID: d.DriverNumber,
			FullName: d.FullName,
			Odds:     odd,
		})
	}

	if fresh && c.Odds != nil && len(cached) > 0 {
		if err := c.Odds.SetOdds(ctx, eventID, cached); err != nil {
			c.Log.Warn("odds cache write failed", zap.Error(err))
		}
	}
	return market
}

// Cotações inteiras entre 2 e 4, como no mercado original.
func randomOdds() float64 { return float64(2 + rand.Intn(3)) }
