package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas do fluxo de apostas e liquidação, compartilhadas entre a API
// e o outcome-worker.
var (
	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_bets_placed_total",
		Help: "apostas aceitas",
	})

	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_bets_rejected_total",
		Help: "apostas rejeitadas por motivo",
	}, []string{"reason"})

	EventsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_events_settled_total",
		Help: "liquidações concluídas",
	})

	SettleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_settle_failures_total",
		Help: "falhas de liquidação por estágio",
	}, []string{"stage"})
)
