package engine

import (
	"context"
	"errors"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/model"
)

// ErrBetPairTaken é retornado por BetStore.Save quando a constraint de
// unicidade (user_id, event_id) é violada por uma inserção concorrente.
var ErrBetPairTaken = errors.New("bet already exists for user and event")

// UserLedger guarda o saldo apostável de cada usuário.
type UserLedger interface {
	// Get retorna nil quando o usuário não existe.
	Get(ctx context.Context, id int64) (*model.User, error)
	GetMany(ctx context.Context, ids []int64) ([]model.User, error)
	// SaveMany faz upsert por id.
	SaveMany(ctx context.Context, users []model.User) error
}

// EventRegistry guarda o estado de liquidação por evento.
type EventRegistry interface {
	// Get retorna nil quando o evento não existe.
	Get(ctx context.Context, id int64) (*model.Event, error)
	// Save faz upsert por id.
	Save(ctx context.Context, ev model.Event) (model.Event, error)
}

// BetStore guarda apostas por id, consultáveis por (evento, status)
// e por existência de (usuário, evento).
type BetStore interface {
	ExistsForUserAndEvent(ctx context.Context, userID, eventID int64) (bool, error)
	FindPendingByEvent(ctx context.Context, eventID int64) ([]model.Bet, error)
	CountByEventAndStatus(ctx context.Context, eventID int64, status model.BetStatus) (int64, error)
	// Save insere a aposta e devolve o id atribuído.
	Save(ctx context.Context, b model.Bet) (model.Bet, error)
	SaveMany(ctx context.Context, bets []model.Bet) error
}

// TxRunner delimita a unidade atômica das operações do motor.
// Toda escrita feita dentro de fn é confirmada ou desfeita em bloco.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
