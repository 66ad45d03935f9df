package topics

const (
	// Eventos de aposta (created/updated/deleted) publicados pela banca-api
	BetEvents = "bet_events"
)
