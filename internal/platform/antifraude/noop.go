package antifraude

import (
	"context"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// Noop representa uma estratégia de antifraude desabilitada.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Validar(context.Context, domain.CastRequest) error {
	return nil
}
