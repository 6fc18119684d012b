package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_MonotonicoNoMesmoInstante(t *testing.T) {
	g := NewGenerator()
	instante := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	anterior := g.NewAt(instante)
	for i := 0; i < 100; i++ {
		atual := g.NewAt(instante)
		require.Less(t, anterior, atual)
		anterior = atual
	}
}

func TestTime_RecuperaInstante(t *testing.T) {
	instante := time.Date(2025, 3, 10, 8, 30, 15, 0, time.UTC)

	got, err := Time(NewGenerator().NewAt(instante))
	require.NoError(t, err)
	assert.Equal(t, instante, got)

	_, err = Time("nao-e-ulid")
	assert.Error(t, err)
}
