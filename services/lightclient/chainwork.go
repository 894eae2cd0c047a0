package lightclient

import (
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient/work"
	"github.com/holiman/uint256"
)

// rangeWork is the work of the headers in (from, to]. Heights below the
// first epoch in epochs carry base, the epochs are ascending by height.
func rangeWork(from, to uint32, base model.NBit, epochs []model.EpochStart) *uint256.Int {
	total := new(uint256.Int)
	bits := base
	cursor := from

	for _, epoch := range epochs {
		if epoch.Height <= from || epoch.Height > to {
			continue
		}

		total.Add(total, segmentWork(bits, epoch.Height-1-cursor))

		bits = epoch.Bits
		cursor = epoch.Height - 1
	}

	return total.Add(total, segmentWork(bits, to-cursor))
}

func segmentWork(bits model.NBit, count uint32) *uint256.Int {
	if count == 0 {
		return new(uint256.Int)
	}

	w := work.CalcBlockWork(bits.Uint32())

	return w.Mul(w, uint256.NewInt(uint64(count)))
}
