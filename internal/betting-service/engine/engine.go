package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/model"
)

// PlaceBetRequest são os parâmetros de admissão de uma aposta,
// já validados estruturalmente pela camada de borda.
type PlaceBetRequest struct {
	UserID      int64
	EventID     int64
	DriverID    int64
	AmountCents int64
	Odds        float64
}

// Outcome é o resultado de uma liquidação. NumWon/NumLost refletem os totais
// correntes armazenados para o evento, não apenas o lote desta chamada.
type Outcome struct {
	EventID        int64
	WinnerDriverID int64
	NumWon         int64
	NumLost        int64
}

// Engine orquestra admissão e liquidação de apostas sobre os três stores.
// Não mantém estado mutável entre requisições; todo estado vive nos stores.
type Engine struct {
	log    *zap.Logger
	tx     TxRunner
	users  UserLedger
	events EventRegistry
	bets   BetStore

	now func() time.Time
}

func New(log *zap.Logger, tx TxRunner, users UserLedger, events EventRegistry, bets BetStore) *Engine {
	return &Engine{
		log:    log,
		tx:     tx,
		users:  users,
		events: events,
		bets:   bets,
		now:    time.Now,
	}
}

// PlaceBet admite uma aposta PENDING para (usuário, evento).
// Nenhum saldo é movimentado aqui; o débito/crédito só acontece na liquidação.
func (e *Engine) PlaceBet(ctx context.Context, req PlaceBetRequest) (model.Bet, error) {
	if req.AmountCents <= 0 {
		return model.Bet{}, &InvalidBetError{Reason: "amount must be positive"}
	}
	if req.Odds < 1 {
		return model.Bet{}, &InvalidBetError{Reason: "odds must be >= 1"}
	}

	var bet model.Bet
	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		// Pré-checagem de duplicata; a constraint única do store é a garantia
		// final contra inserções concorrentes do mesmo par.
		exists, err := e.bets.ExistsForUserAndEvent(ctx, req.UserID, req.EventID)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateBetError{UserID: req.UserID, EventID: req.EventID}
		}

		ev, err := e.resolveEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if ev.Settled() {
			return &EventFinishedError{EventID: req.EventID, WinnerDriverID: *ev.WinnerDriverID}
		}

		user, err := e.users.Get(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return &UserNotFoundError{UserID: req.UserID}
		}
		if user.BalanceCents < req.AmountCents {
			return &OutOfBalanceError{
				UserID:       req.UserID,
				BalanceCents: user.BalanceCents,
				AmountCents:  req.AmountCents,
			}
		}

		bet, err = e.bets.Save(ctx, model.Bet{
			UserID:      req.UserID,
			EventID:     req.EventID,
			DriverID:    req.DriverID,
			AmountCents: req.AmountCents,
			Odds:        req.Odds,
			Status:      model.BetPending,
			CreatedAt:   e.now().UTC(),
		})
		if errors.Is(err, ErrBetPairTaken) {
			// Outra requisição ganhou a corrida pelo par (usuário, evento).
			return &DuplicateBetError{UserID: req.UserID, EventID: req.EventID}
		}
		return err
	})
	if err != nil {
		return model.Bet{}, err
	}

	e.log.Info("bet placed",
		zap.Int64("betId", bet.ID),
		zap.Int64("userId", bet.UserID),
		zap.Int64("eventId", bet.EventID),
		zap.Int64("amountCents", bet.AmountCents),
	)
	return bet, nil
}

// SettleOutcome registra o vencedor de um evento e resolve todas as apostas
// PENDING em WON/LOST, aplicando os deltas de saldo por usuário em lote.
// A operação inteira é uma unidade atômica: ou tudo é confirmado, ou nada.
func (e *Engine) SettleOutcome(ctx context.Context, eventID, winnerDriverID int64) (Outcome, error) {
	var out Outcome
	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		pending, err := e.bets.FindPendingByEvent(ctx, eventID)
		if err != nil {
			return err
		}

		if err := e.markEventSettled(ctx, eventID, winnerDriverID); err != nil {
			return err
		}

		if len(pending) > 0 {
			updated := make([]model.Bet, len(pending))
			for i, b := range pending {
				if b.DriverID == winnerDriverID {
					b.Status = model.BetWon
				} else {
					b.Status = model.BetLost
				}
				updated[i] = b
			}
			if err := e.bets.SaveMany(ctx, updated); err != nil {
				return err
			}

			if err := e.applyBalanceDeltas(ctx, computeUserDeltas(pending, winnerDriverID)); err != nil {
				return err
			}
		}

		// Contagem fresca contra o estado armazenado: inclui apostas
		// resolvidas por liquidações anteriores do mesmo evento.
		won, err := e.bets.CountByEventAndStatus(ctx, eventID, model.BetWon)
		if err != nil {
			return err
		}
		lost, err := e.bets.CountByEventAndStatus(ctx, eventID, model.BetLost)
		if err != nil {
			return err
		}

		out = Outcome{EventID: eventID, WinnerDriverID: winnerDriverID, NumWon: won, NumLost: lost}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	e.log.Info("event settled",
		zap.Int64("eventId", out.EventID),
		zap.Int64("winnerDriverId", out.WinnerDriverID),
		zap.Int64("numWon", out.NumWon),
		zap.Int64("numLost", out.NumLost),
	)
	return out, nil
}

// resolveEvent busca o evento ou cria um registro novo, ainda aberto.
// Eventos não precisam pré-existir antes da primeira aposta.
func (e *Engine) resolveEvent(ctx context.Context, eventID int64) (model.Event, error) {
	ev, err := e.events.Get(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if ev != nil {
		return *ev, nil
	}
	return e.events.Save(ctx, model.Event{ID: eventID})
}

func (e *Engine) markEventSettled(ctx context.Context, eventID, winnerDriverID int64) error {
	ev, err := e.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if ev == nil {
		ev = &model.Event{ID: eventID}
	}
	now := e.now().UTC()
	ev.WinnerDriverID = &winnerDriverID
	ev.SettledAt = &now
	_, err = e.events.Save(ctx, *ev)
	return err
}

func (e *Engine) applyBalanceDeltas(ctx context.Context, deltas map[int64]int64) error {
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}

	users, err := e.users.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for i := range users {
		users[i].BalanceCents += deltas[users[i].ID]
	}
	return e.users.SaveMany(ctx, users)
}

// computeUserDeltas soma, por usuário, o efeito de saldo das apostas pendentes:
// crédito de stake x odd para vencedoras, débito do stake para perdedoras.
func computeUserDeltas(pending []model.Bet, winnerDriverID int64) map[int64]int64 {
	deltas := make(map[int64]int64, len(pending))
	for _, b := range pending {
		if b.DriverID == winnerDriverID {
			deltas[b.UserID] += b.PayoutCents()
		} else {
			deltas[b.UserID] -= b.AmountCents
		}
	}
	return deltas
}
