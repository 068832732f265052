package model

import (
	"math"
	"time"
)

type BetStatus string

const (
	BetPending BetStatus = "PENDING"
	BetWon     BetStatus = "WON"
	BetLost    BetStatus = "LOST"
)

// Bet é uma aposta no vencedor de um evento. Imutável após a criação,
// exceto pelo status, que transita PENDING -> WON|LOST uma única vez.
type Bet struct {
	ID          int64
	UserID      int64
	EventID     int64
	DriverID    int64
	AmountCents int64
	Odds        float64
	Status      BetStatus
	CreatedAt   time.Time
}

// PayoutCents calcula o prêmio bruto (stake x odd), arredondado ao centavo.
func (b Bet) PayoutCents() int64 {
	return int64(math.Round(float64(b.AmountCents) * b.Odds))
}
