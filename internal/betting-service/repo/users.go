package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/model"
)

// Users implementa o ledger de usuários sobre a tabela users.
type Users struct{ db *DB }

func NewUsers(db *DB) *Users { return &Users{db: db} }

func (u *Users) Get(ctx context.Context, id int64) (*model.User, error) {
	var usr model.User
	err := u.db.q(ctx).QueryRowContext(ctx,
		`SELECT id, first_name, last_name, balance_cents FROM users WHERE id=$1`, id,
	).Scan(&usr.ID, &usr.FirstName, &usr.LastName, &usr.BalanceCents)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usr, nil
}

func (u *Users) GetMany(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := u.db.q(ctx).QueryContext(ctx,
		`SELECT id, first_name, last_name, balance_cents FROM users WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var usr model.User
		if err := rows.Scan(&usr.ID, &usr.FirstName, &usr.LastName, &usr.BalanceCents); err != nil {
			return nil, err
		}
		out = append(out, usr)
	}
	return out, rows.Err()
}

// SaveMany faz upsert por id, em lote, dentro da transação corrente.
func (u *Users) SaveMany(ctx context.Context, users []model.User) error {
	for _, usr := range users {
		_, err := u.db.q(ctx).ExecContext(ctx, `
			INSERT INTO users (id, first_name, last_name, balance_cents)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET
				first_name    = EXCLUDED.first_name,
				last_name     = EXCLUDED.last_name,
				balance_cents = EXCLUDED.balance_cents`,
			usr.ID, usr.FirstName, usr.LastName, usr.BalanceCents,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
