// Package memory is a process local header chain store, used by tests and
// short-lived clients.
package memory

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/dolthub/swiss"
)

type Memory struct {
	mu         sync.RWMutex
	logger     ulogger.Logger
	genesis    *model.Genesis
	tip        *model.ChainTip
	byHeight   *swiss.Map[uint32, chainhash.Hash]
	byHash     *swiss.Map[chainhash.Hash, uint32]
	epochs     *swiss.Map[uint32, model.EpochStart]
	submitters *swiss.Map[string, struct{}]
}

func New(logger ulogger.Logger) *Memory {
	return &Memory{
		logger:     logger,
		byHeight:   swiss.NewMap[uint32, chainhash.Hash](1024),
		byHash:     swiss.NewMap[chainhash.Hash, uint32](1024),
		epochs:     swiss.NewMap[uint32, model.EpochStart](16),
		submitters: swiss.NewMap[string, struct{}](8),
	}
}

func (m *Memory) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "Memory Store", nil
}

func (m *Memory) Initialize(_ context.Context, state *headerchain.State) error {
	if state == nil || state.Genesis == nil || state.Tip == nil || state.Tip.Hash == nil {
		return errors.NewInvalidArgumentError("genesis and tip are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.genesis != nil {
		return errors.NewStateInitializedError("header chain already initialized at %d %s", m.genesis.Height, m.genesis.Hash)
	}

	genesis := *state.Genesis
	m.genesis = &genesis
	m.tip = state.Tip.Clone()

	m.putEntry(model.ChainEntry{Height: state.Tip.Height, Hash: state.Tip.Hash})
	m.epochs.Put(state.Epoch.Height, state.Epoch)

	for _, id := range state.Submitters {
		m.submitters.Put(id, struct{}{})
	}

	return nil
}

func (m *Memory) GetGenesis(_ context.Context) (*model.Genesis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.genesis == nil {
		return nil, errors.NewStateNotInitializedError("header chain not initialized")
	}

	genesis := *m.genesis

	return &genesis, nil
}

func (m *Memory) GetTip(_ context.Context) (*model.ChainTip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.tip == nil {
		return nil, errors.NewStateNotInitializedError("header chain not initialized")
	}

	return m.tip.Clone(), nil
}

func (m *Memory) GetEntry(_ context.Context, hash *chainhash.Hash) (*model.ChainEntry, error) {
	if hash == nil {
		return nil, errors.NewInvalidArgumentError("hash is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	height, ok := m.byHash.Get(*hash)
	if !ok {
		return nil, errors.NewNotFoundError("header %s is not retained", hash)
	}

	h := *hash

	return &model.ChainEntry{Height: height, Hash: &h}, nil
}

func (m *Memory) GetEntryByHeight(_ context.Context, height uint32) (*model.ChainEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, ok := m.byHeight.Get(height)
	if !ok {
		return nil, errors.NewNotFoundError("no header retained at height %d", height)
	}

	return &model.ChainEntry{Height: height, Hash: &hash}, nil
}

func (m *Memory) GetEpoch(_ context.Context, height uint32) (*model.EpochStart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	epoch, ok := m.epochs.Get(height)
	if !ok {
		return nil, errors.NewNotFoundError("no epoch retained at height %d", height)
	}

	return &epoch, nil
}

func (m *Memory) Apply(_ context.Context, update *headerchain.Update) error {
	if update == nil || update.Tip == nil {
		return errors.NewInvalidArgumentError("update without a tip")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tip == nil {
		return errors.NewStateNotInitializedError("header chain not initialized")
	}

	m.deleteWhere(func(height uint32) bool { return height > update.ForkHeight })
	m.deleteEpochsWhere(func(height uint32) bool { return height > update.ForkHeight })

	for _, e := range update.Entries {
		m.putEntry(e)
	}

	for _, epoch := range update.Epochs {
		m.epochs.Put(epoch.Height, epoch)
	}

	m.deleteWhere(func(height uint32) bool { return height < update.PruneHeight })
	m.deleteEpochsWhere(func(height uint32) bool { return height < update.EpochPruneHeight })

	m.tip = update.Tip.Clone()

	return nil
}

func (m *Memory) GetSubmitters(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, m.submitters.Count())

	m.submitters.Iter(func(id string, _ struct{}) bool {
		ids = append(ids, id)
		return false
	})

	sort.Strings(ids)

	return ids, nil
}

func (m *Memory) SetSubmitter(_ context.Context, id string, authorized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if authorized {
		m.submitters.Put(id, struct{}{})
	} else {
		m.submitters.Delete(id)
	}

	return nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) putEntry(e model.ChainEntry) {
	if old, ok := m.byHeight.Get(e.Height); ok {
		m.byHash.Delete(old)
	}

	m.byHeight.Put(e.Height, *e.Hash)
	m.byHash.Put(*e.Hash, e.Height)
}

func (m *Memory) deleteEpochsWhere(match func(height uint32) bool) {
	var heights []uint32

	m.epochs.Iter(func(height uint32, _ model.EpochStart) bool {
		if match(height) {
			heights = append(heights, height)
		}

		return false
	})

	for _, height := range heights {
		m.epochs.Delete(height)
	}
}

func (m *Memory) deleteWhere(match func(height uint32) bool) {
	var heights []uint32

	m.byHeight.Iter(func(height uint32, _ chainhash.Hash) bool {
		if match(height) {
			heights = append(heights, height)
		}

		return false
	})

	for _, height := range heights {
		if hash, ok := m.byHeight.Get(height); ok {
			m.byHash.Delete(hash)
		}

		m.byHeight.Delete(height)
	}
}
