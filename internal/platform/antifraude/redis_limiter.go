// Pacote antifraude limita a frequência de tentativas de voto por eleitor (rate limit Redis e modo noop).
package antifraude

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

var ErrRateLimitExceeded = errors.New("limite de tentativas de voto atingido")

// RedisRateLimiter conta tentativas por eleitor e sessão em janelas fixas.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisRateLimiter) Validar(ctx context.Context, req domain.CastRequest) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Configurações inválidas caem automaticamente no modo permissivo.
		return nil
	}

	key := r.buildKey(req)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("antifraude: falha ao incrementar chave: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("antifraude: falha ao definir expiracao: %w", err)
		}
	}

	if int(count) > r.limit {
		return fmt.Errorf("%w: eleitor %s", ErrRateLimitExceeded, req.VoterID)
	}

	return nil
}

func (r *RedisRateLimiter) buildKey(req domain.CastRequest) string {
	// Hash evita expor a matrícula do eleitor nas chaves do Redis.
	base := fmt.Sprintf("%s|%s", req.SessionID, req.VoterID)
	hash := sha1.Sum([]byte(base))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var (
	_ domain.Antifraude = (*RedisRateLimiter)(nil)
	_ domain.Antifraude = Noop{}
)
