package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/engine"
	sharedkafka "github.com/NemanjaZirojevic/f1betting/internal/shared/kafka"
	"github.com/NemanjaZirojevic/f1betting/pkg/contracts/events"
)

// Settler é a operação de liquidação consumida pelo worker.
type Settler interface {
	SettleOutcome(ctx context.Context, eventID, winnerDriverID int64) (engine.Outcome, error)
}

// Publisher propaga o evento event_settled após a liquidação.
type Publisher interface {
	PublishEventSettled(ctx context.Context, e events.EventSettled) error
}

// Processor consome resultados oficiais de corrida do Kafka e dispara a
// liquidação de cada evento. Resultados que falham repetidamente vão pra DLQ.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log     *zap.Logger
	Reader  *kafka.Reader
	Settler Settler
	Publ    Publisher     // opcional
	DLQ     *kafka.Writer // opcional

	OnConsumed func()       // métricas (counter++)
	OnSettled  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e liquidação.
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.Handle(ctx, m.Value); err != nil {
			p.Log.Error("race result processing failed", zap.Error(err))
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// Handle processa um resultado de corrida:
// 1. Decodifica e valida a mensagem
// 2. Liquida o evento (com retry; DLQ em falha persistente)
// 3. Publica event_settled
func (p *Processor) Handle(ctx context.Context, value []byte) error {
	var result events.RaceResult
	if err := json.Unmarshal(value, &result); err != nil {
		if p.OnError != nil {
			p.OnError("decode")
		}
		// mensagem malformada não é recuperável; manda direto pra DLQ
		p.toDLQ(ctx, value)
		return fmt.Errorf("unmarshal race result: %w", err)
	}
	if result.EventID <= 0 || result.WinnerDriverID <= 0 {
		if p.OnError != nil {
			p.OnError("validate")
		}
		p.toDLQ(ctx, value)
		return fmt.Errorf("invalid race result: event=%d winner=%d", result.EventID, result.WinnerDriverID)
	}

	out, err := p.Settler.SettleOutcome(ctx, result.EventID, result.WinnerDriverID)
	if err != nil {
		// Retry simples: tenta até 3 vezes antes de enviar para DLQ
		const retries = 3
		for i := 0; i < retries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			if out, err = p.Settler.SettleOutcome(ctx, result.EventID, result.WinnerDriverID); err == nil {
				break
			}
		}
		if err != nil {
			if p.OnError != nil {
				p.OnError("settle")
			}
			p.toDLQ(ctx, value)
			return fmt.Errorf("settle event %d: %w", result.EventID, err)
		}
	}

	if p.OnSettled != nil {
		p.OnSettled()
	}
	p.Log.Info("event settled from race result",
		zap.Int64("eventId", out.EventID),
		zap.Int64("winnerDriverId", out.WinnerDriverID),
		zap.Int64("numWon", out.NumWon),
		zap.Int64("numLost", out.NumLost),
	)

	if p.Publ != nil {
		if err := p.Publ.PublishEventSettled(ctx, events.EventSettled{
			EventID:        out.EventID,
			WinnerDriverID: out.WinnerDriverID,
			NumWon:         out.NumWon,
			NumLost:        out.NumLost,
		}); err != nil {
			p.Log.Warn("publish event_settled failed", zap.Error(err))
		}
	}
	return nil
}

func (p *Processor) toDLQ(ctx context.Context, value []byte) {
	if p.DLQ == nil {
		return
	}
	if err := sharedkafka.WriteJSON(ctx, p.DLQ, "", value); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
	}
}
