// Pacote window deriva o estado temporal de uma sessão.
package window

import "time"

type Phase string

const (
	Upcoming Phase = "upcoming"
	Active   Phase = "active"
	Ended    Phase = "ended"
)

// State avalia o intervalo semiaberto [start, end): o instante final já não aceita votos.
func State(now, start, end time.Time) Phase {
	switch {
	case now.Before(start):
		return Upcoming
	case now.Before(end):
		return Active
	default:
		return Ended
	}
}

// Valid informa se a janela pode ser usada por uma sessão.
func Valid(start, end time.Time) bool {
	return !start.IsZero() && !end.IsZero() && start.Before(end)
}
