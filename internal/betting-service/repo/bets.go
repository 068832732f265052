package repo

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/engine"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/model"
)

// Bets implementa o store de apostas sobre a tabela bets.
// A constraint UNIQUE (user_id, event_id) da tabela é a guarda autoritativa
// contra apostas duplicadas do mesmo par.
type Bets struct{ db *DB }

func NewBets(db *DB) *Bets { return &Bets{db: db} }

func (b *Bets) ExistsForUserAndEvent(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := b.db.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bets WHERE user_id=$1 AND event_id=$2)`,
		userID, eventID,
	).Scan(&exists)
	return exists, err
}

func (b *Bets) FindPendingByEvent(ctx context.Context, eventID int64) ([]model.Bet, error) {
	rows, err := b.db.q(ctx).QueryContext(ctx, `
		SELECT id, user_id, event_id, driver_id, amount_cents, odds, status, created_at
		FROM bets
		WHERE event_id=$1 AND status=$2
		ORDER BY id`,
		eventID, model.BetPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bet
	for rows.Next() {
		var bet model.Bet
		if err := rows.Scan(&bet.ID, &bet.UserID, &bet.EventID, &bet.DriverID,
			&bet.AmountCents, &bet.Odds, &bet.Status, &bet.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, bet)
	}
	return out, rows.Err()
}

func (b *Bets) CountByEventAndStatus(ctx context.Context, eventID int64, status model.BetStatus) (int64, error) {
	var n int64
	err := b.db.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bets WHERE event_id=$1 AND status=$2`,
		eventID, status,
	).Scan(&n)
	return n, err
}

// Save insere a aposta e devolve o id atribuído pelo banco.
// Violação da constraint única vira engine.ErrBetPairTaken.
func (b *Bets) Save(ctx context.Context, bet model.Bet) (model.Bet, error) {
	err := b.db.q(ctx).QueryRowContext(ctx, `
		INSERT INTO bets (user_id, event_id, driver_id, amount_cents, odds, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`,
		bet.UserID, bet.EventID, bet.DriverID, bet.AmountCents, bet.Odds, bet.Status, bet.CreatedAt,
	).Scan(&bet.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.Bet{}, engine.ErrBetPairTaken
		}
		return model.Bet{}, err
	}
	return bet, nil
}

// SaveMany grava o novo status de cada aposta do lote.
func (b *Bets) SaveMany(ctx context.Context, bets []model.Bet) error {
	for _, bet := range bets {
		_, err := b.db.q(ctx).ExecContext(ctx,
			`UPDATE bets SET status=$1 WHERE id=$2`,
			bet.Status, bet.ID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
