package dto

import "time"

type BetResponse struct {
	BetID       int64     `json:"betId"`
	UserID      int64     `json:"userId"`
	EventID     int64     `json:"eventId"`
	DriverID    int64     `json:"driverId"`
	AmountCents int64     `json:"amount_cents"`
	Odds        float64   `json:"odds"`
	Status      string    `json:"status"` // PENDING | WON | LOST
	CreatedAt   time.Time `json:"createdAt"`
}

type OutcomeResponse struct {
	EventID  int64 `json:"eventId"`
	WinnerID int64 `json:"winnerId"`
	NumWon   int64 `json:"numWon"`
	NumLost  int64 `json:"numLost"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
