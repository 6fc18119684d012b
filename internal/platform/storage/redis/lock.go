package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/ids"
)

var ErrLockTimeout = errors.New("redis lock: tempo esgotado aguardando chave")

// releaseScript só apaga a chave se o token ainda for o do dono; um lock expirado
// e readquirido por outra instância não é removido por engano.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// KeyLock serializa a admissão por chave entre várias instâncias da API.
type KeyLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	ids    *ids.Generator
}

func NewKeyLock(client *redis.Client, prefix string, ttl time.Duration) *KeyLock {
	if prefix == "" {
		prefix = "lock"
	}
	return &KeyLock{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  10 * time.Millisecond,
		ids:    ids.DefaultGenerator(),
	}
}

// Lock tenta SET NX PX até conseguir, até o contexto terminar ou até esgotar o TTL.
func (l *KeyLock) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	token := l.ids.New()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: adquirir %s: %w", key, err)
		}
		if ok {
			return func() {
				// Liberação usa contexto próprio: o da requisição pode já ter sido cancelado.
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

var _ domain.KeyLocker = (*KeyLock)(nil)
