package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/NemanjaZirojevic/f1betting/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio do betting-service.
// Cada tipo de evento sai no seu próprio tópico/writer.
type KafkaPublisher struct {
	BetPlacedWriter    *kafka.Writer
	EventSettledWriter *kafka.Writer
}

func NewKafkaPublisher(betPlaced, eventSettled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		BetPlacedWriter:    betPlaced,
		EventSettledWriter: eventSettled,
	}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.MessageID = uuid.NewString()
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.BetPlacedWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.EventID, 10)),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishEventSettled(ctx context.Context, e events.EventSettled) error {
	e.MessageID = uuid.NewString()
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.EventSettledWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.EventID, 10)),
		Value: b,
	})
}
