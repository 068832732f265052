package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/dto"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/engine"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/model"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/provider"
	"github.com/NemanjaZirojevic/f1betting/internal/shared/metrics"
	cev "github.com/NemanjaZirojevic/f1betting/pkg/contracts/events"
)

// Betting define as operações do motor usadas pelo handler HTTP
type Betting interface {
	PlaceBet(ctx context.Context, req engine.PlaceBetRequest) (model.Bet, error)
	SettleOutcome(ctx context.Context, eventID, winnerDriverID int64) (engine.Outcome, error)
}

// Publisher publica os eventos de domínio no Kafka (best effort)
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e cev.BetPlaced) error
	PublishEventSettled(ctx context.Context, e cev.EventSettled) error
}

// Server expõe a API pública de apostas e eventos
type Server struct {
	log    *zap.Logger
	engine Betting
	events provider.EventSource
	publ   Publisher
}

func NewServer(log *zap.Logger, eng Betting, events provider.EventSource, publ Publisher) *Server {
	return &Server{log: log, engine: eng, events: events, publ: publ}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/bets", s.placeBet)
	r.Get("/api/events", s.listEvents)
	r.Post("/api/events/{eventID}/outcome", s.settleOutcome)
	return r
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID <= 0 || req.EventID <= 0 || req.DriverID <= 0 {
		writeError(w, http.StatusBadRequest, "userId, eventId and driverId are required")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "amount_cents must be positive")
		return
	}
	if req.Odds < 1 {
		writeError(w, http.StatusBadRequest, "odds must be >= 1")
		return
	}

	bet, err := s.engine.PlaceBet(r.Context(), engine.PlaceBetRequest{
		UserID:      req.UserID,
		EventID:     req.EventID,
		DriverID:    req.DriverID,
		AmountCents: req.AmountCents,
		Odds:        req.Odds,
	})
	if err != nil {
		s.writeBetError(w, err)
		return
	}

	metrics.BetsPlaced.Inc()

	// Publicação é notificação, não parte da unidade atômica
	if err := s.publ.PublishBetPlaced(r.Context(), cev.BetPlaced{
		BetID:       bet.ID,
		UserID:      bet.UserID,
		EventID:     bet.EventID,
		DriverID:    bet.DriverID,
		AmountCents: bet.AmountCents,
		Odds:        bet.Odds,
	}); err != nil {
		s.log.Warn("publish bet_placed failed", zap.Int64("betId", bet.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, dto.BetResponse{
		BetID:       bet.ID,
		UserID:      bet.UserID,
		EventID:     bet.EventID,
		DriverID:    bet.DriverID,
		AmountCents: bet.AmountCents,
		Odds:        bet.Odds,
		Status:      string(bet.Status),
		CreatedAt:   bet.CreatedAt,
	})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := s.events.ListEvents(r.Context(), q.Get("sessionType"), q.Get("year"), q.Get("country"))
	if err != nil {
		// o provider engole falhas do upstream; erro aqui é infraestrutura
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) settleOutcome(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil || eventID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid eventID")
		return
	}

	var req dto.EventOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.WinnerID <= 0 {
		writeError(w, http.StatusBadRequest, "winnerId must be positive")
		return
	}

	out, err := s.engine.SettleOutcome(r.Context(), eventID, req.WinnerID)
	if err != nil {
		metrics.SettleFailures.WithLabelValues("engine").Inc()
		s.log.Error("settle outcome failed", zap.Int64("eventId", eventID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "settlement failed")
		return
	}

	metrics.EventsSettled.Inc()

	if err := s.publ.PublishEventSettled(r.Context(), cev.EventSettled{
		EventID:        out.EventID,
		WinnerDriverID: out.WinnerDriverID,
		NumWon:         out.NumWon,
		NumLost:        out.NumLost,
	}); err != nil {
		s.log.Warn("publish event_settled failed", zap.Int64("eventId", out.EventID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, dto.OutcomeResponse{
		EventID:  out.EventID,
		WinnerID: out.WinnerDriverID,
		NumWon:   out.NumWon,
		NumLost:  out.NumLost,
	})
}

// writeBetError mapeia cada erro de negócio da admissão para um status
// corrigível pelo cliente; o resto é falha de infraestrutura.
func (s *Server) writeBetError(w http.ResponseWriter, err error) {
	var (
		dup      *engine.DuplicateBetError
		finished *engine.EventFinishedError
		notFound *engine.UserNotFoundError
		balance  *engine.OutOfBalanceError
		invalid  *engine.InvalidBetError
	)
	switch {
	case errors.As(err, &dup):
		metrics.BetsRejected.WithLabelValues("duplicate").Inc()
		writeError(w, http.StatusConflict, dup.Error())
	case errors.As(err, &finished):
		metrics.BetsRejected.WithLabelValues("event_finished").Inc()
		writeError(w, http.StatusConflict, finished.Error())
	case errors.As(err, &notFound):
		metrics.BetsRejected.WithLabelValues("user_not_found").Inc()
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &balance):
		metrics.BetsRejected.WithLabelValues("out_of_balance").Inc()
		writeError(w, http.StatusUnprocessableEntity, balance.Error())
	case errors.As(err, &invalid):
		metrics.BetsRejected.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, invalid.Error())
	default:
		metrics.BetsRejected.WithLabelValues("infra").Inc()
		s.log.Error("place bet failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
