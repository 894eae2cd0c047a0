// Package headerchain persists the accepted header chain of the light client:
// the immutable genesis, the canonical tip, a window of retained entries, the
// start of every retained epoch and the authorized submitters.
package headerchain

import (
	"context"

	"github.com/bitcoin-sv/btcx/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// State is written once by Initialize.
type State struct {
	Genesis    *model.Genesis
	Tip        *model.ChainTip
	Epoch      model.EpochStart
	Submitters []string
}

// Update replaces the tip in one transaction. Entries and epochs above
// ForkHeight are dropped before Entries and Epochs are written, then entries
// below PruneHeight and epochs below EpochPruneHeight are removed.
type Update struct {
	Tip              *model.ChainTip
	ForkHeight       uint32
	Entries          []model.ChainEntry
	Epochs           []model.EpochStart
	PruneHeight      uint32
	EpochPruneHeight uint32
}

type Store interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	// Initialize fails with ERR_STATE_INITIALIZED when a genesis is already stored.
	Initialize(ctx context.Context, state *State) error
	// GetGenesis and GetTip fail with ERR_STATE_NOT_INITIALIZED before Initialize.
	GetGenesis(ctx context.Context) (*model.Genesis, error)
	GetTip(ctx context.Context) (*model.ChainTip, error)
	// GetEntry and GetEntryByHeight fail with ERR_NOT_FOUND for unknown entries.
	GetEntry(ctx context.Context, hash *chainhash.Hash) (*model.ChainEntry, error)
	GetEntryByHeight(ctx context.Context, height uint32) (*model.ChainEntry, error)
	// GetEpoch returns the epoch starting at height, ERR_NOT_FOUND if none is retained.
	GetEpoch(ctx context.Context, height uint32) (*model.EpochStart, error)
	Apply(ctx context.Context, update *Update) error
	GetSubmitters(ctx context.Context) ([]string, error)
	SetSubmitter(ctx context.Context, id string, authorized bool) error
	Close() error
}
