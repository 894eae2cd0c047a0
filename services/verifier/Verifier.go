// Package verifier checks batches of 80-byte headers against a known parent.
//
// Two modes share one loop. Verify extends a chain whose target cannot change
// inside the batch and fails with ERR_RETARGET_REQUIRED at an epoch boundary.
// VerifyWithRetargeting takes the first and last header of the parent's epoch
// as timestamp evidence, recomputes the target at every boundary the batch
// crosses and requires the post-boundary headers to carry it.
//
// Both modes stop at the first failing header and return no partial result.
package verifier

import (
	"context"
	"math"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient/work"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"
)

// evidenceRecords is the number of epoch evidence headers prefixed to a retargeting batch.
const evidenceRecords = 2

// ctxCheckInterval is how many headers are hashed between context checks.
const ctxCheckInterval = 256

// Result describes a verified batch.
type Result struct {
	TipHash   *chainhash.Hash
	TipHeight uint32
	TipBits   model.NBit
	// NextTarget is the target of the last epoch entered, nil in fixed difficulty mode.
	NextTarget *uint256.Int
	// Hashes of every verified header, ascending by height.
	Hashes []*chainhash.Hash
	// ChainWork is the work of the batch only.
	ChainWork   *uint256.Int
	EpochStarts []model.EpochStart
}

type Verifier struct {
	logger             ulogger.Logger
	params             *chaincfg.Params
	retarget           *Retarget
	maxHeaders         int
	boundaryParentOnly bool
}

func New(logger ulogger.Logger, params *chaincfg.Params, opts ...Option) (*Verifier, error) {
	initPrometheusMetrics()

	retarget, err := NewRetarget(params)
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		logger:   logger,
		params:   params,
		retarget: retarget,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

func (v *Verifier) Retarget() *Retarget {
	return v.retarget
}

// walkState is the chain position the loop extends.
type walkState struct {
	height uint32
	hash   *chainhash.Hash
	target *uint256.Int

	// only used when retargeting
	retargeting      bool
	epochStartTime   uint32
	previousTime     uint32
	lastEpochEntered *uint256.Int
}

// Verify checks headers that extend parentHash at parentHeight without a target change.
func (v *Verifier) Verify(ctx context.Context, parentHeight uint32, parentHash *chainhash.Hash, currentTarget *uint256.Int, headers []byte) (result *Result, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "Verifier:Verify",
		tracing.WithHistogram(prometheusVerifierVerify),
		tracing.WithAttributes(attribute.Int("bytes", len(headers))),
	)

	defer func() {
		v.countRejection(err)
		deferFn(err)
	}()

	if parentHash == nil || currentTarget == nil {
		return nil, errors.NewInvalidArgumentError("parent hash and current target are required")
	}

	records, err := v.splitBatch(parentHeight, headers, 0)
	if err != nil {
		return nil, err
	}

	state := &walkState{
		height: parentHeight,
		hash:   parentHash,
		target: new(uint256.Int).Set(currentTarget),
	}

	result, err = v.walk(ctx, state, records)
	if err != nil {
		return nil, err
	}

	v.logger.Debugf("[Verifier][Verify] verified %d headers from %d, tip %s at %d", len(records), parentHeight, result.TipHash, result.TipHeight)

	return result, nil
}

// VerifyWithRetargeting checks a batch prefixed with the first and last
// header of the parent's epoch. epochStartHash is the stored hash of the
// epoch's first header and currentTarget the target of that epoch.
func (v *Verifier) VerifyWithRetargeting(ctx context.Context, parentHeight uint32, parentHash, epochStartHash *chainhash.Hash,
	currentTarget *uint256.Int, headers []byte) (result *Result, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "Verifier:VerifyWithRetargeting",
		tracing.WithHistogram(prometheusVerifierVerifyRetargeting),
		tracing.WithAttributes(attribute.Int("bytes", len(headers))),
	)

	defer func() {
		v.countRejection(err)
		deferFn(err)
	}()

	if parentHash == nil || epochStartHash == nil || currentTarget == nil {
		return nil, errors.NewInvalidArgumentError("parent hash, epoch start hash and current target are required")
	}

	records, err := v.splitBatch(parentHeight, headers, evidenceRecords)
	if err != nil {
		return nil, err
	}

	interval := v.retarget.Interval()
	epochStart := v.retarget.EpochStart(parentHeight)
	epochEnd := epochStart + interval - 1
	nextBoundary := uint64(epochStart) + uint64(interval)

	if v.boundaryParentOnly && parentHeight != epochEnd {
		return nil, errors.NewInvalidHeadersInputError("parent height %d is not the last header of its epoch", parentHeight)
	}

	batch := records[evidenceRecords:]

	if uint64(parentHeight)+uint64(len(batch)) < nextBoundary {
		return nil, errors.NewInvalidHeadersInputError("batch ends at %d and does not reach the retarget boundary %d", uint64(parentHeight)+uint64(len(batch)), nextBoundary)
	}

	startHeader, err := model.NewBlockHeaderFromBytes(records[0])
	if err != nil {
		return nil, err
	}

	startHash := model.HashHeaderBytes(records[0])
	if !startHash.IsEqual(epochStartHash) {
		return nil, errors.NewInvalidHeadersInputError("epoch start evidence %s does not match stored epoch start %s", startHash, epochStartHash)
	}

	if parentHeight == epochStart && !startHash.IsEqual(parentHash) {
		return nil, errors.NewInvalidHeadersInputError("epoch start evidence %s does not match parent %s", startHash, parentHash)
	}

	endHeader, err := model.NewBlockHeaderFromBytes(records[1])
	if err != nil {
		return nil, err
	}

	endHash := model.HashHeaderBytes(records[1])

	if parentHeight == epochEnd {
		if !endHash.IsEqual(parentHash) {
			return nil, errors.NewInvalidHeadersInputError("epoch end evidence %s does not match parent %s", endHash, parentHash)
		}
	} else {
		inBatch := model.HashHeaderBytes(batch[epochEnd-parentHeight-1])
		if !endHash.IsEqual(inBatch) {
			return nil, errors.NewInvalidHeadersInputError("epoch end evidence %s does not match header %s at height %d", endHash, inBatch, epochEnd)
		}
	}

	state := &walkState{
		height:         parentHeight,
		hash:           parentHash,
		target:         new(uint256.Int).Set(currentTarget),
		retargeting:    true,
		epochStartTime: startHeader.Timestamp,
		previousTime:   endHeader.Timestamp,
	}

	result, err = v.walk(ctx, state, batch)
	if err != nil {
		return nil, err
	}

	result.NextTarget = state.lastEpochEntered

	v.logger.Debugf("[Verifier][VerifyWithRetargeting] verified %d headers from %d across %d boundaries, next target %08x",
		len(batch), parentHeight, len(result.EpochStarts), model.TargetToCompact(result.NextTarget))

	return result, nil
}

// splitBatch cuts the blob into records and applies the size limits. The
// first evidence records do not count towards the header limit.
func (v *Verifier) splitBatch(parentHeight uint32, headers []byte, evidence int) ([][]byte, error) {
	records, err := model.SplitHeaders(headers)
	if err != nil {
		return nil, err
	}

	if len(records) <= evidence {
		return nil, errors.NewInvalidHeadersInputError("expected %d evidence headers and at least one header, got %d records", evidence, len(records))
	}

	count, err := safeconversion.IntToUint32(len(records) - evidence)
	if err != nil {
		return nil, errors.NewInvalidHeadersInputError("too many headers", err)
	}

	if v.maxHeaders > 0 && int(count) > v.maxHeaders {
		return nil, errors.NewInvalidHeadersInputError("batch of %d headers exceeds the maximum of %d", count, v.maxHeaders)
	}

	if uint64(parentHeight)+uint64(count) > math.MaxUint32 {
		return nil, errors.NewInvalidHeadersInputError("batch of %d headers overflows the height from %d", count, parentHeight)
	}

	return records, nil
}

// walk is the loop shared by both modes. For each header it checks, in order,
// the parent link, the retarget boundary, the target and the proof of work.
func (v *Verifier) walk(ctx context.Context, state *walkState, records [][]byte) (*Result, error) {
	result := &Result{
		Hashes:    make([]*chainhash.Hash, 0, len(records)),
		ChainWork: new(uint256.Int),
	}

	for i, record := range records {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.NewContextCanceledError("verification aborted at header %d", i, err)
			}
		}

		header, err := model.NewBlockHeaderFromBytes(record)
		if err != nil {
			return nil, err
		}

		height := state.height + 1
		hash := model.HashHeaderBytes(record)

		if !header.HashPrevBlock.IsEqual(state.hash) {
			return nil, errors.NewHeaderError(errors.ERR_INVALID_PARENT, i, height, hash.String(),
				"header %s at height %d links to %s, expected %s", hash, height, header.HashPrevBlock, state.hash)
		}

		boundary := v.retarget.IsBoundary(height) && !v.params.NoDifficultyAdjustment
		if boundary {
			if !state.retargeting {
				return nil, errors.NewHeaderError(errors.ERR_RETARGET_REQUIRED, i, height, hash.String(),
					"header at height %d starts a new epoch", height)
			}

			next := v.retarget.NextTarget(state.target, state.epochStartTime, state.previousTime)

			// the chain carries the compact form, compare against its decoding
			state.target, err = model.CompactToTarget(model.TargetToCompact(next))
			if err != nil {
				return nil, errors.NewHeaderError(errors.ERR_INVALID_TARGET, i, height, hash.String(),
					"recomputed target does not encode", err)
			}
		}

		headerTarget, err := header.Bits.Target()
		if err != nil {
			return nil, errors.NewHeaderError(errors.ERR_INVALID_TARGET, i, height, hash.String(),
				"header at height %d has invalid bits %s", height, header.Bits, err)
		}

		// the bits must be the canonical encoding, an equal decoded value is not enough
		if expected := model.TargetToCompact(state.target); header.Bits.Uint32() != expected {
			return nil, errors.NewHeaderError(errors.ERR_TARGET_MISMATCH, i, height, hash.String(),
				"header at height %d has bits %s, expected %08x", height, header.Bits, expected)
		}

		if model.HashToInt(hash).Cmp(headerTarget) > 0 {
			return nil, errors.NewHeaderError(errors.ERR_INSUFFICIENT_WORK, i, height, hash.String(),
				"header %s at height %d is above its target", hash, height)
		}

		if boundary {
			result.EpochStarts = append(result.EpochStarts, model.EpochStart{
				Height:    height,
				Hash:      hash,
				Timestamp: header.Timestamp,
				Bits:      header.Bits,
			})

			state.epochStartTime = header.Timestamp
			state.lastEpochEntered = new(uint256.Int).Set(state.target)
		}

		result.ChainWork.Add(result.ChainWork, work.CalcBlockWork(header.Bits.Uint32()))
		result.Hashes = append(result.Hashes, hash)

		state.height = height
		state.hash = hash
		state.previousTime = header.Timestamp
		result.TipBits = header.Bits
	}

	result.TipHash = state.hash
	result.TipHeight = state.height

	if state.retargeting && state.lastEpochEntered == nil {
		state.lastEpochEntered = new(uint256.Int).Set(state.target)
	}

	prometheusVerifierHeaders.Add(float64(len(records)))
	prometheusVerifierBatchSize.Observe(float64(len(records)))

	return result, nil
}

func (v *Verifier) countRejection(err error) {
	if err == nil {
		return
	}

	var e *errors.Error
	if errors.As(err, &e) {
		prometheusVerifierRejected.WithLabelValues(e.Code().String()).Inc()
		return
	}

	prometheusVerifierRejected.WithLabelValues(errors.ERR_UNKNOWN.String()).Inc()
}
