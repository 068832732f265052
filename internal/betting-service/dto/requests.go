package dto

type PlaceBetRequest struct {
	UserID      int64   `json:"userId"`
	EventID     int64   `json:"eventId"`
	DriverID    int64   `json:"driverId"`
	AmountCents int64   `json:"amount_cents"` // stake em centavos
	Odds        float64 `json:"odds"`         // multiplicador decimal, >= 1
}

type EventOutcomeRequest struct {
	WinnerID int64 `json:"winnerId"`
}
