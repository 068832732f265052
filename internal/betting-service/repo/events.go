package repo

import (
	"context"
	"database/sql"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/model"
)

// Events implementa o registro de liquidação sobre a tabela events.
type Events struct{ db *DB }

func NewEvents(db *DB) *Events { return &Events{db: db} }

func (e *Events) Get(ctx context.Context, id int64) (*model.Event, error) {
	var ev model.Event
	err := e.db.q(ctx).QueryRowContext(ctx,
		`SELECT id, winner_driver_id, settled_at FROM events WHERE id=$1`, id,
	).Scan(&ev.ID, &ev.WinnerDriverID, &ev.SettledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Save faz upsert por id: eventos são criados preguiçosamente na primeira
// aposta ou na primeira liquidação que os toca.
func (e *Events) Save(ctx context.Context, ev model.Event) (model.Event, error) {
	_, err := e.db.q(ctx).ExecContext(ctx, `
		INSERT INTO events (id, winner_driver_id, settled_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET
			winner_driver_id = EXCLUDED.winner_driver_id,
			settled_at       = EXCLUDED.settled_at`,
		ev.ID, ev.WinnerDriverID, ev.SettledAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}
