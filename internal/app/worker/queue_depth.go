package worker

import (
	"context"
	"time"

	"github.com/marcelojr/votacao-campus/internal/platform/logger"
	"github.com/marcelojr/votacao-campus/internal/platform/metrics"
)

// QueueLen é o pedaço da fila que o amostrador precisa.
type QueueLen interface {
	Len(ctx context.Context) (int64, error)
}

// WatchQueueDepth publica o tamanho da fila no gauge a cada intervalo até o contexto terminar.
func WatchQueueDepth(ctx context.Context, fila QueueLen, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := fila.Len(ctx)
			if err != nil {
				logger.Warn("falha ao medir fila de tentativas", "err", err)
				continue
			}
			metrics.SetAttemptQueueDepth(n)
		}
	}
}
