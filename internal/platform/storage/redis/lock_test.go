package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_Lock_QuandoLivre_DeveAdquirirELiberar(t *testing.T) {
	client, mr := setupRedis(t)
	lock := NewKeyLock(client, "lock:admissao", 5*time.Second)

	// Act
	unlock, err := lock.Lock(context.Background(), "s1|a1|presidente")
	require.NoError(t, err)

	// Assert
	assert.True(t, mr.Exists("lock:admissao:s1|a1|presidente"))
	assert.Greater(t, mr.TTL("lock:admissao:s1|a1|presidente"), time.Duration(0))

	unlock()
	assert.False(t, mr.Exists("lock:admissao:s1|a1|presidente"))
}

func TestKeyLock_Lock_QuandoOcupado_DeveEsperarContexto(t *testing.T) {
	client, _ := setupRedis(t)
	lock := NewKeyLock(client, "lock", 5*time.Second)

	unlock, err := lock.Lock(context.Background(), "chave")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Act
	_, err = lock.Lock(ctx, "chave")

	// Assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeyLock_Lock_QuandoOcupadoAlemDoTTL_DeveRetornarTimeout(t *testing.T) {
	client, _ := setupRedis(t)
	lock := NewKeyLock(client, "lock", 30*time.Millisecond)

	// miniredis não expira chaves sozinho; o primeiro dono segura a chave indefinidamente.
	_, err := lock.Lock(context.Background(), "chave")
	require.NoError(t, err)

	_, err = lock.Lock(context.Background(), "chave")

	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestKeyLock_Unlock_QuandoTokenDeOutroDono_NaoDeveApagar(t *testing.T) {
	client, mr := setupRedis(t)
	lock := NewKeyLock(client, "lock", 5*time.Second)

	unlock, err := lock.Lock(context.Background(), "chave")
	require.NoError(t, err)

	// Arrange: chave expirou e outra instância a readquiriu
	require.NoError(t, mr.Set("lock:chave", "outro-dono"))

	// Act
	unlock()

	// Assert
	valor, err := mr.Get("lock:chave")
	require.NoError(t, err)
	assert.Equal(t, "outro-dono", valor)
}

func TestKeyLock_Lock_QuandoConcorrente_DeveSerExclusivo(t *testing.T) {
	client, _ := setupRedis(t)
	lock := NewKeyLock(client, "lock", 5*time.Second)

	var dentro, maximo atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := lock.Lock(context.Background(), "chave")
			if err != nil {
				t.Errorf("lock falhou: %v", err)
				return
			}
			atual := dentro.Add(1)
			for {
				m := maximo.Load()
				if atual <= m || maximo.CompareAndSwap(m, atual) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			dentro.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maximo.Load())
}
