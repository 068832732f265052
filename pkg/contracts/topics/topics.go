package topics

const (
	// Apostas
	BetPlaced = "bet_placed"

	// Liquidação de eventos
	EventSettled = "event_settled"

	// Resultados oficiais de corrida (entrada do outcome-worker)
	RaceResults = "race_results"

	// DLQs
	RaceResultsDLQ = "race_results_dlq"
)
