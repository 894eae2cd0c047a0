package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Genesis is the immutable starting point of the light client.
// Commitment is opaque to the client and only passed through.
// EpochStartHash is only needed when Height is not a retarget boundary.
type Genesis struct {
	Height         uint32          `json:"height"`
	Hash           *chainhash.Hash `json:"hash"`
	Bits           NBit            `json:"bits"`
	Timestamp      uint32          `json:"timestamp,omitempty"`
	Commitment     []byte          `json:"commitment,omitempty"`
	EpochStartHash *chainhash.Hash `json:"epochStartHash,omitempty"`
}

// EpochStart is the first header of a retarget epoch and the bits every
// header of the epoch carries. Its timestamp is optional because the genesis
// of a client may sit in the middle of an epoch.
type EpochStart struct {
	Height    uint32          `json:"height"`
	Hash      *chainhash.Hash `json:"hash"`
	Timestamp uint32          `json:"timestamp,omitempty"`
	Bits      NBit            `json:"bits"`
}

// ChainTip is the canonical best header known to the client.
type ChainTip struct {
	Height     uint32          `json:"height"`
	Hash       *chainhash.Hash `json:"hash"`
	Bits       NBit            `json:"bits"`
	EpochStart EpochStart      `json:"epochStart"`
	ChainWork  *chainhash.Hash `json:"chainWork"`
}

// ChainEntry is a retained header of the accepted chain.
type ChainEntry struct {
	Height uint32          `json:"height"`
	Hash   *chainhash.Hash `json:"hash"`
}

func (t *ChainTip) Clone() *ChainTip {
	if t == nil {
		return nil
	}

	c := *t
	c.Hash = cloneHash(t.Hash)
	c.ChainWork = cloneHash(t.ChainWork)
	c.EpochStart.Hash = cloneHash(t.EpochStart.Hash)

	return &c
}

func cloneHash(h *chainhash.Hash) *chainhash.Hash {
	if h == nil {
		return nil
	}

	c := *h

	return &c
}
