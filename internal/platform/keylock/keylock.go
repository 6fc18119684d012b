// Pacote keylock fornece exclusão mútua por chave dentro de um único processo.
package keylock

import (
	"context"
	"sync"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Locker mantém uma entrada por chave enquanto houver alguém segurando ou esperando;
// chaves diferentes nunca competem entre si.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// Len devolve quantas chaves estão em uso.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

var _ domain.KeyLocker = (*Locker)(nil)
