package events

import "time"

// Evento publicado no tópico "event_settled" quando um evento é liquidado.
type EventSettled struct {
	MessageID      string    `json:"message_id"`
	EventID        int64     `json:"event_id"`
	WinnerDriverID int64     `json:"winner_driver_id"`
	NumWon         int64     `json:"num_won"`
	NumLost        int64     `json:"num_lost"`
	Ts             time.Time `json:"ts"`
}
