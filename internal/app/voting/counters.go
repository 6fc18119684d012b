package voting

import (
	"fmt"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

func CounterKeyRejected(id domain.SessionID) string {
	return fmt.Sprintf("session:%s:rejected", id)
}

func CounterKeyRejectedReason(id domain.SessionID, reason domain.RejectionKind) string {
	return fmt.Sprintf("session:%s:rejected:%s", id, reason)
}

// RejectionCounterKeys devolve as chaves incrementadas para uma tentativa recusada.
func RejectionCounterKeys(a domain.RejectedAttempt) []string {
	return []string{CounterKeyRejected(a.SessionID), CounterKeyRejectedReason(a.SessionID, a.Reason)}
}
