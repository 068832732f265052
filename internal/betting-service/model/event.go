package model

import "time"

// Event é o registro local de liquidação de um evento de corrida.
// O id corresponde ao identificador do catálogo externo (session_key).
// WinnerDriverID e SettledAt ficam nulos até a liquidação.
type Event struct {
	ID             int64
	WinnerDriverID *int64
	SettledAt      *time.Time
}

// Settled indica se o evento já tem vencedor registrado.
func (e Event) Settled() bool { return e.WinnerDriverID != nil }
