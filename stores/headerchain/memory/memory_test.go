package memory

import (
	"context"
	"net/http"
	"testing"

	"github.com/bitcoin-sv/btcx/stores/headerchain/tests"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	cases := map[string]func(*testing.T, *Memory){
		"uninitialized":    func(t *testing.T, m *Memory) { tests.Uninitialized(t, m) },
		"initialize":       func(t *testing.T, m *Memory) { tests.Initialize(t, m) },
		"extend":           func(t *testing.T, m *Memory) { tests.ApplyExtend(t, m) },
		"reorg":            func(t *testing.T, m *Memory) { tests.ApplyReorg(t, m) },
		"epochs and prune": func(t *testing.T, m *Memory) { tests.ApplyEpochsAndPrune(t, m) },
		"submitters":       func(t *testing.T, m *Memory) { tests.Submitters(t, m) },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			fn(t, New(ulogger.TestLogger{}))
		})
	}
}

func TestMemoryHealth(t *testing.T) {
	status, details, err := New(ulogger.TestLogger{}).Health(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Memory Store", details)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := New(ulogger.TestLogger{})

	require.NoError(t, m.Initialize(ctx, tests.State()))

	tip, err := m.GetTip(ctx)
	require.NoError(t, err)

	tip.Height = 1
	tip.Hash[0] ^= 0xff

	again, err := m.GetTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(2016), again.Height)
	assert.Equal(t, tests.State().Tip.Hash, again.Hash)
}
