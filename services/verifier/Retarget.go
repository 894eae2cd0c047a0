package verifier

import (
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/holiman/uint256"
)

// RetargetInterval is the number of headers between difficulty adjustments.
// go-chaincfg no longer carries it since BSV dropped the 2016 header rule.
const RetargetInterval = 2016

// Retarget recomputes the target at epoch boundaries for a set of network params.
type Retarget struct {
	interval       uint32
	targetTimespan int64
	minTimespan    int64
	maxTimespan    int64
	powLimit       *uint256.Int
	noAdjustment   bool
}

// NewRetarget takes the block spacing, adjustment factor and pow limit from
// params. The epoch timespan is RetargetInterval blocks at that spacing, 14
// days on mainnet.
func NewRetarget(params *chaincfg.Params) (*Retarget, error) {
	if params == nil {
		return nil, errors.NewConfigurationError("chain params are required")
	}

	if params.TargetTimePerBlock < time.Second {
		return nil, errors.NewConfigurationError("invalid target time per block %s", params.TargetTimePerBlock)
	}

	if params.RetargetAdjustmentFactor <= 0 {
		return nil, errors.NewConfigurationError("invalid retarget adjustment factor %d", params.RetargetAdjustmentFactor)
	}

	if params.PowLimit == nil || params.PowLimit.Sign() <= 0 {
		return nil, errors.NewConfigurationError("pow limit must be positive")
	}

	powLimit, overflow := uint256.FromBig(params.PowLimit)
	if overflow {
		return nil, errors.NewConfigurationError("pow limit overflows 256 bits")
	}

	targetTimespan := RetargetInterval * int64(params.TargetTimePerBlock/time.Second)

	return &Retarget{
		interval:       RetargetInterval,
		targetTimespan: targetTimespan,
		minTimespan:    targetTimespan / params.RetargetAdjustmentFactor,
		maxTimespan:    targetTimespan * params.RetargetAdjustmentFactor,
		powLimit:       powLimit,
		noAdjustment:   params.NoDifficultyAdjustment,
	}, nil
}

// Interval is the number of headers in a retarget epoch.
func (r *Retarget) Interval() uint32 {
	return r.interval
}

// TargetTimespan is the expected duration of an epoch.
func (r *Retarget) TargetTimespan() time.Duration {
	return time.Duration(r.targetTimespan) * time.Second
}

func (r *Retarget) IsBoundary(height uint32) bool {
	return height%r.interval == 0
}

// EpochStart is the height of the first header of the epoch containing height.
func (r *Retarget) EpochStart(height uint32) uint32 {
	return height - height%r.interval
}

func (r *Retarget) PowLimit() *uint256.Int {
	return new(uint256.Int).Set(r.powLimit)
}

// NextTarget scales previous by the clamped epoch timespan. The product is
// computed with a 512-bit intermediate and the result never exceeds the pow limit.
func (r *Retarget) NextTarget(previous *uint256.Int, firstTimestamp, lastTimestamp uint32) *uint256.Int {
	if r.noAdjustment {
		return new(uint256.Int).Set(previous)
	}

	actual := int64(lastTimestamp) - int64(firstTimestamp)

	if actual < r.minTimespan {
		actual = r.minTimespan
	} else if actual > r.maxTimespan {
		actual = r.maxTimespan
	}

	next, overflow := new(uint256.Int).MulDivOverflow(
		previous,
		uint256.NewInt(uint64(actual)), //nolint:gosec // clamped to a positive range
		uint256.NewInt(uint64(r.targetTimespan)),
	)
	if overflow || next.Cmp(r.powLimit) > 0 {
		return new(uint256.Int).Set(r.powLimit)
	}

	return next
}

// NextCompact is the compact form the chain records for NextTarget.
func (r *Retarget) NextCompact(previous *uint256.Int, firstTimestamp, lastTimestamp uint32) model.NBit {
	return model.NewNBitFromUint32(model.TargetToCompact(r.NextTarget(previous, firstTimestamp, lastTimestamp)))
}
