// Pacote health expõe as sondas de liveness e readiness dos binários.
package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckFunc falha quando a dependência não está pronta para atender.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

// Checker executa as checagens na ordem de registro e para na primeira falha.
type Checker struct {
	checks  []check
	timeout time.Duration
}

func NewChecker(db *sql.DB, redis *redis.Client) *Checker {
	c := &Checker{timeout: 2 * time.Second}
	if db != nil {
		c.Add("database", db.PingContext)
	}
	if redis != nil {
		c.Add("redis", func(ctx context.Context) error {
			return redis.Ping(ctx).Err()
		})
	}
	return c
}

func (c *Checker) Add(name string, fn CheckFunc) {
	if fn == nil {
		return
	}
	c.checks = append(c.checks, check{name: name, fn: fn})
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		for _, ch := range c.checks {
			if err := ch.fn(ctx); err != nil {
				http.Error(w, ch.name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
