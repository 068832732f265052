package engine

import "fmt"

// Erros de negócio da admissão de apostas. Todos são condições do cliente,
// não falhas de infraestrutura, e não devem ser retentados às cegas.

type DuplicateBetError struct {
	UserID  int64
	EventID int64
}

func (e *DuplicateBetError) Error() string {
	return fmt.Sprintf("user %d has already placed a bet for event %d", e.UserID, e.EventID)
}

type EventFinishedError struct {
	EventID        int64
	WinnerDriverID int64
}

func (e *EventFinishedError) Error() string {
	return fmt.Sprintf("can't place bet for already finished event (eventId=%d, winnerDriverId=%d)", e.EventID, e.WinnerDriverID)
}

type UserNotFoundError struct {
	UserID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user with id %d not found", e.UserID)
}

type OutOfBalanceError struct {
	UserID       int64
	BalanceCents int64
	AmountCents  int64
}

func (e *OutOfBalanceError) Error() string {
	return "insufficient funds for this bet"
}

type InvalidBetError struct {
	Reason string
}

func (e *InvalidBetError) Error() string { return "invalid bet: " + e.Reason }
