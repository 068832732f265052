package provider

import "context"

// DriverMarket é a cotação de um piloto dentro do mercado de um evento.
type DriverMarket struct {
	DriverID int64   `json:"driverId"`
	FullName string  `json:"fullName"`
	Odds     float64 `json:"odds"`
}

// EventDetails descreve um evento apostável vindo do catálogo externo.
type EventDetails struct {
	ID          int64          `json:"id"`
	SessionType string         `json:"sessionType"`
	Year        int            `json:"year"`
	Country     string         `json:"country"`
	Markets     []DriverMarket `json:"driverMarket"`
}

// EventSource é a capacidade consumida pelo serviço para listar eventos.
// Implementações devem aplicar sua própria política de retry/rate-limit e
// devolver lista vazia em caso de falha do upstream, nunca propagar o erro.
type EventSource interface {
	ListEvents(ctx context.Context, sessionType, year, country string) ([]EventDetails, error)
}
