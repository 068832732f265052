package events

// Evento publicado no tópico "bet_placed" após uma aposta ser aceita.
type BetPlaced struct {
	MessageID   string  `json:"message_id"`
	BetID       int64   `json:"bet_id"`
	UserID      int64   `json:"user_id"`
	EventID     int64   `json:"event_id"`
	DriverID    int64   `json:"driver_id"`
	AmountCents int64   `json:"amount_cents"`
	Odds        float64 `json:"odds"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}
