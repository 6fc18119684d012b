package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// Fila usa uma lista Redis para desacoplar o registro das tentativas recusadas do caminho do voto.
type Fila struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{
		client:  client,
		key:     key,
		timeout: 5 * time.Second,
	}
}

func (f *Fila) LogAttempt(ctx context.Context, attempt domain.RejectedAttempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("redis fila: falha serializando tentativa: %w", err)
	}

	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: falha ao enfileirar tentativa: %w", err)
	}
	return nil
}

// Len informa quantas tentativas aguardam o worker.
func (f *Fila) Len(ctx context.Context) (int64, error) {
	n, err := f.client.LLen(ctx, f.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis fila: tamanho: %w", err)
	}
	return n, nil
}

// ConsumirTentativas processa em ordem de chegada até o contexto terminar. Se o handler
// falha, a mensagem volta para a ponta de consumo e o erro é devolvido ao chamador.
func (f *Fila) ConsumirTentativas(ctx context.Context, handler func(context.Context, domain.RejectedAttempt) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// BRPOP mantém o processamento bloqueado mas com timeout curto para respeitar o contexto.
		res, err := f.client.BRPop(ctx, f.timeout, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("redis fila: falha ao consumir tentativa: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var attempt domain.RejectedAttempt
		if err := json.Unmarshal([]byte(res[1]), &attempt); err != nil {
			return fmt.Errorf("redis fila: payload invalido: %w", err)
		}

		if err := handler(ctx, attempt); err != nil {
			if pushErr := f.client.RPush(context.WithoutCancel(ctx), f.key, res[1]).Err(); pushErr != nil {
				return errors.Join(err, fmt.Errorf("redis fila: devolver tentativa %s: %w", attempt.ID, pushErr))
			}
			return err
		}
	}
}

var _ domain.Fila = (*Fila)(nil)
