package lightclient

import (
	"context"

	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/verifier"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

// Notifier is told about every accepted tip after it was stored.
type Notifier interface {
	Publish(ctx context.Context, n *model.TipNotification) error
}

// Update is a verified extension of the chain from a retained parent.
//
// Hashes, when given, holds every header hash in (ParentHeight, TipHeight].
// EpochStarts holds one record for every retarget boundary in that range.
// NewTarget and ChainWork are cross checked against what the stored epochs
// imply when given.
type Update struct {
	ParentHash   *chainhash.Hash
	ParentHeight uint32
	TipHash      *chainhash.Hash
	TipHeight    uint32
	NewTarget    *uint256.Int
	Hashes       []*chainhash.Hash
	EpochStarts  []model.EpochStart
	ChainWork    *uint256.Int
}

// ParentContext is what a verifier needs to extend a retained header.
type ParentContext struct {
	Height     uint32
	Hash       *chainhash.Hash
	Bits       model.NBit
	Target     *uint256.Int
	EpochStart model.EpochStart
}

// UpdateFromResult is the update for a batch verified on top of parentHash.
func UpdateFromResult(parentHeight uint32, parentHash *chainhash.Hash, r *verifier.Result) *Update {
	return &Update{
		ParentHash:   parentHash,
		ParentHeight: parentHeight,
		TipHash:      r.TipHash,
		TipHeight:    r.TipHeight,
		NewTarget:    r.NextTarget,
		Hashes:       r.Hashes,
		EpochStarts:  r.EpochStarts,
		ChainWork:    r.ChainWork,
	}
}
