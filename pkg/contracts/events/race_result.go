package events

import "time"

// Resultado oficial de corrida consumido pelo outcome-worker.
// Source identifica a origem do resultado (ex: "openf1", "manual").
type RaceResult struct {
	MessageID      string    `json:"message_id"`
	EventID        int64     `json:"event_id"`
	WinnerDriverID int64     `json:"winner_driver_id"`
	Source         string    `json:"source,omitempty"`
	Ts             time.Time `json:"ts"`
}
