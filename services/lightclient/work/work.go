// Package work calculates proof-of-work values for headers and chains.
//
// The work of a header is the expected number of hash operations needed to
// find a hash at or below its target, 2^256 / (target + 1). Cumulative work is
// carried as a chainhash.Hash holding the little endian integer, so that its
// String() form reads as the usual big endian chainwork hex.
package work

import (
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

// CalcBlockWork returns 2^256 / (target + 1) for the compact bits, or zero
// when the bits do not decode to a valid target.
func CalcBlockWork(bits uint32) *uint256.Int {
	target, err := model.CompactToTarget(bits)
	if err != nil {
		return new(uint256.Int)
	}

	// 2^256 does not fit, (2^256 - target - 1) / (target + 1) + 1 is the same quotient
	denominator := new(uint256.Int).AddUint64(target, 1)
	if denominator.IsZero() {
		return uint256.NewInt(1)
	}

	numerator := new(uint256.Int).Not(target)

	work := new(uint256.Int).Div(numerator, denominator)

	return work.AddUint64(work, 1)
}

// CalculateWork adds the work of a header with nBits to prevWork.
func CalculateWork(prevWork *chainhash.Hash, nBits model.NBit) (*chainhash.Hash, error) {
	newWork := new(uint256.Int).Add(ToInt(prevWork), CalcBlockWork(nBits.Uint32()))

	return FromInt(newWork), nil
}

// SumWork is the total work of a run of headers that all carry bits.
func SumWork(bits []model.NBit) *uint256.Int {
	total := new(uint256.Int)
	for _, b := range bits {
		total.Add(total, CalcBlockWork(b.Uint32()))
	}

	return total
}

// ToInt reads a cumulative work hash. A nil hash is zero work.
func ToInt(h *chainhash.Hash) *uint256.Int {
	if h == nil {
		return new(uint256.Int)
	}

	return new(uint256.Int).SetBytes(bt.ReverseBytes(h.CloneBytes()))
}

func FromInt(w *uint256.Int) *chainhash.Hash {
	b := w.Bytes32()
	hash := &chainhash.Hash{}
	copy(hash[:], bt.ReverseBytes(b[:]))

	return hash
}
