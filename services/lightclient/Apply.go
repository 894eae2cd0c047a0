package lightclient

import (
	"context"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient/work"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"
)

// Apply accepts update as the new canonical tip when submitterID is
// authorized, the parent is a retained header and the update ends above the
// current tip. It returns the new tip.
func (lc *LightClient) Apply(ctx context.Context, submitterID string, update *Update) (tip *model.ChainTip, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "LightClient:Apply",
		tracing.WithHistogram(prometheusLightClientApply),
		tracing.WithAttributes(attribute.String("submitter", submitterID)),
	)

	defer func() {
		countRejection(err)
		deferFn(err)
	}()

	lc.mu.Lock()
	defer lc.mu.Unlock()

	authorized, err := lc.IsAuthorized(ctx, submitterID)
	if err != nil {
		return nil, err
	}

	if !authorized {
		return nil, errors.NewUnauthorizedError("submitter %q is not authorized", submitterID)
	}

	if update == nil || update.ParentHash == nil || update.TipHash == nil {
		return nil, errors.NewInvalidHeadersInputError("update needs a parent and a tip hash")
	}

	current, err := lc.store.GetTip(ctx)
	if err != nil {
		return nil, err
	}

	parent, err := lc.store.GetEntry(ctx, update.ParentHash)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewUnknownParentError("parent %s is not a retained header", update.ParentHash)
		}

		return nil, err
	}

	if parent.Height != update.ParentHeight {
		return nil, errors.NewUnknownParentError("parent %s is retained at %d, not %d", update.ParentHash, parent.Height, update.ParentHeight)
	}

	if update.TipHeight <= current.Height {
		return nil, errors.NewForksNotSupportedError("update ends at %d, not above the tip at %d", update.TipHeight, current.Height)
	}

	entries, err := lc.entries(update)
	if err != nil {
		return nil, err
	}

	parentEpoch, err := lc.epochOf(ctx, update.ParentHeight, current)
	if err != nil {
		return nil, err
	}

	epochs, err := lc.crossedEpochs(update)
	if err != nil {
		return nil, err
	}

	tipEpoch := *parentEpoch
	if len(epochs) > 0 {
		tipEpoch = epochs[len(epochs)-1]
	}

	if update.NewTarget != nil {
		if model.TargetToCompact(update.NewTarget) != tipEpoch.Bits.Uint32() {
			return nil, errors.NewInvalidHeadersInputError("new target %08x does not match the bits %s of epoch %d",
				model.TargetToCompact(update.NewTarget), tipEpoch.Bits, tipEpoch.Height)
		}
	}

	batchWork := rangeWork(update.ParentHeight, update.TipHeight, parentEpoch.Bits, epochs)

	if update.ChainWork != nil && !update.ChainWork.Eq(batchWork) {
		return nil, errors.NewInvalidHeadersInputError("chain work %s does not match %s implied by the epochs", update.ChainWork.Dec(), batchWork.Dec())
	}

	parentWork, err := lc.parentWork(ctx, update.ParentHeight, parentEpoch, current)
	if err != nil {
		return nil, err
	}

	tip = &model.ChainTip{
		Height:     update.TipHeight,
		Hash:       update.TipHash,
		Bits:       tipEpoch.Bits,
		EpochStart: tipEpoch,
		ChainWork:  work.FromInt(batchWork.Add(batchWork, parentWork)),
	}

	pruneHeight, epochPruneHeight := lc.pruneHeights(ctx, tip)

	if err = lc.store.Apply(ctx, &headerchain.Update{
		Tip:              tip,
		ForkHeight:       update.ParentHeight,
		Entries:          entries,
		Epochs:           epochs,
		PruneHeight:      pruneHeight,
		EpochPruneHeight: epochPruneHeight,
	}); err != nil {
		return nil, err
	}

	prometheusLightClientTipHeight.Set(float64(tip.Height))

	if update.ParentHeight < current.Height {
		prometheusLightClientReorgs.Inc()
		lc.logger.Warnf("[LightClient][Apply] reorg from %d: tip %s at %d replaced by %s at %d", update.ParentHeight, current.Hash, current.Height, tip.Hash, tip.Height)
	}

	lc.logger.Infof("[LightClient][Apply] %s moved tip to %s at %d (%d headers, %d epochs)", submitterID, tip.Hash, tip.Height, len(entries), len(epochs))

	lc.notify(ctx, submitterID, update.ParentHeight, tip)

	return tip, nil
}

// entries are the retained records of the update, only the tip when the
// intermediate hashes were not given.
func (lc *LightClient) entries(update *Update) ([]model.ChainEntry, error) {
	if len(update.Hashes) == 0 {
		return []model.ChainEntry{{Height: update.TipHeight, Hash: update.TipHash}}, nil
	}

	if uint64(len(update.Hashes)) != uint64(update.TipHeight-update.ParentHeight) {
		return nil, errors.NewInvalidHeadersInputError("%d hashes for heights %d to %d", len(update.Hashes), update.ParentHeight+1, update.TipHeight)
	}

	if !update.Hashes[len(update.Hashes)-1].IsEqual(update.TipHash) {
		return nil, errors.NewInvalidHeadersInputError("last hash %s is not the tip %s", update.Hashes[len(update.Hashes)-1], update.TipHash)
	}

	entries := make([]model.ChainEntry, len(update.Hashes))

	for i, hash := range update.Hashes {
		if hash == nil {
			return nil, errors.NewInvalidHeadersInputError("missing hash at height %d", update.ParentHeight+uint32(i)+1) //nolint:gosec // bounded by the height range
		}

		entries[i] = model.ChainEntry{Height: update.ParentHeight + uint32(i) + 1, Hash: hash} //nolint:gosec // bounded by the height range
	}

	return entries, nil
}

// crossedEpochs checks that EpochStarts holds exactly one record per
// retarget boundary in (ParentHeight, TipHeight] and returns them ascending.
func (lc *LightClient) crossedEpochs(update *Update) ([]model.EpochStart, error) {
	if lc.params.NoDifficultyAdjustment {
		if len(update.EpochStarts) > 0 {
			return nil, errors.NewInvalidHeadersInputError("%s does not adjust difficulty, epoch evidence is not expected", lc.params.Name)
		}

		return nil, nil
	}

	interval := uint64(lc.retarget.Interval())
	next := uint64(lc.retarget.EpochStart(update.ParentHeight)) + interval

	var expected []uint32

	for h := next; h <= uint64(update.TipHeight); h += interval {
		expected = append(expected, uint32(h)) //nolint:gosec // below TipHeight
	}

	if len(update.EpochStarts) != len(expected) {
		return nil, errors.NewInvalidHeadersInputError("update from %d to %d crosses %d retarget boundaries, %d epoch records given",
			update.ParentHeight, update.TipHeight, len(expected), len(update.EpochStarts))
	}

	epochs := make([]model.EpochStart, len(expected))

	for i, height := range expected {
		epoch := update.EpochStarts[i]

		if epoch.Height != height || epoch.Hash == nil {
			return nil, errors.NewInvalidHeadersInputError("missing epoch evidence for the retarget boundary at %d", height)
		}

		if _, err := epoch.Bits.Target(); err != nil {
			return nil, errors.NewInvalidHeadersInputError("epoch %d has undecodable bits %s", height, epoch.Bits, err)
		}

		if len(update.Hashes) > 0 && !update.Hashes[height-update.ParentHeight-1].IsEqual(epoch.Hash) {
			return nil, errors.NewInvalidHeadersInputError("epoch %d hash %s is not the header %s at that height", height, epoch.Hash, update.Hashes[height-update.ParentHeight-1])
		}

		if height == update.TipHeight && !epoch.Hash.IsEqual(update.TipHash) {
			return nil, errors.NewInvalidHeadersInputError("epoch %d hash %s is not the tip %s", height, epoch.Hash, update.TipHash)
		}

		epochs[i] = epoch
	}

	return epochs, nil
}

// parentWork is the cumulative work at the parent: the tip's work less the
// headers above the parent that the update replaces.
func (lc *LightClient) parentWork(ctx context.Context, parentHeight uint32, parentEpoch *model.EpochStart, current *model.ChainTip) (*uint256.Int, error) {
	tipWork := work.ToInt(current.ChainWork)

	if parentHeight == current.Height {
		return tipWork, nil
	}

	var dropped []model.EpochStart

	if !lc.params.NoDifficultyAdjustment {
		interval := lc.retarget.Interval()

		for h := parentEpoch.Height + interval; h <= current.Height && h > parentEpoch.Height; h += interval {
			epoch, err := lc.store.GetEpoch(ctx, h)
			if err != nil {
				return nil, errors.NewStorageError("epoch %d of the replaced headers is not retained", h, err)
			}

			dropped = append(dropped, *epoch)
		}
	}

	replaced := rangeWork(parentHeight, current.Height, parentEpoch.Bits, dropped)

	parentWork, underflow := new(uint256.Int).SubOverflow(tipWork, replaced)
	if underflow {
		return nil, errors.NewStorageError("tip work %s is below the work %s of the replaced headers", tipWork.Dec(), replaced.Dec())
	}

	return parentWork, nil
}

// pruneHeights keeps the entries from RetainHeaders below the first header of
// the tip's epoch, and every epoch from the one covering that height.
func (lc *LightClient) pruneHeights(ctx context.Context, tip *model.ChainTip) (uint32, uint32) {
	floor := tip.EpochStart.Height

	pruneHeight := uint32(0)
	if floor > lc.retain {
		pruneHeight = floor - lc.retain
	}

	if genesis, err := lc.store.GetGenesis(ctx); err == nil && pruneHeight < genesis.Height {
		pruneHeight = genesis.Height
	}

	epochPruneHeight := tip.EpochStart.Height
	if !lc.params.NoDifficultyAdjustment {
		if e := lc.retarget.EpochStart(pruneHeight); e < epochPruneHeight {
			epochPruneHeight = e
		}
	}

	return pruneHeight, epochPruneHeight
}

func (lc *LightClient) notify(ctx context.Context, submitterID string, forkHeight uint32, tip *model.ChainTip) {
	if lc.notifier == nil {
		return
	}

	if err := lc.notifier.Publish(ctx, &model.TipNotification{
		Type:        model.NotificationTipChanged,
		Height:      tip.Height,
		Hash:        tip.Hash,
		Bits:        tip.Bits,
		ForkHeight:  forkHeight,
		SubmitterID: submitterID,
		Timestamp:   time.Now().Unix(),
	}); err != nil {
		prometheusLightClientNotifyErr.Inc()
		lc.logger.Errorf("[LightClient][Apply] failed to publish tip %s at %d: %v", tip.Hash, tip.Height, err)
	}
}

func countRejection(err error) {
	if err == nil {
		return
	}

	var e *errors.Error
	if errors.As(err, &e) {
		prometheusLightClientRejected.WithLabelValues(e.Code().String()).Inc()
		return
	}

	prometheusLightClientRejected.WithLabelValues(errors.ERR_UNKNOWN.String()).Inc()
}
