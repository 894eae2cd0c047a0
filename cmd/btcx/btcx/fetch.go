package btcx

import (
	"context"
	"fmt"
	"io"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/verifier"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/urfave/cli/v2"
)

// headerSubmitter is the part of api.Client the fetcher needs.
type headerSubmitter interface {
	Tip(ctx context.Context) (*model.ChainTip, error)
	Submit(ctx context.Context, parentHash *chainhash.Hash, headers []byte) (*model.ChainTip, error)
}

type headerSource interface {
	GetBlockCount(ctx context.Context) (uint32, error)
	GetHeaderByHeight(ctx context.Context, height uint32) ([]byte, error)
}

type fetcher struct {
	logger   ulogger.Logger
	params   *chaincfg.Params
	retarget *verifier.Retarget
	source   headerSource
	target   headerSubmitter
	batch    uint32
	out      io.Writer
}

func (a *app) fetch(c *cli.Context) error {
	source, err := NewRPCClient(a.logger, c.String("rpc"))
	if err != nil {
		return err
	}

	count, err := safeconversion.Uint64ToUint32(c.Uint64("count"))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid --count", err)
	}

	batch, err := safeconversion.Uint64ToUint32(c.Uint64("batch"))
	if err != nil || batch == 0 {
		return errors.NewInvalidArgumentError("invalid --batch %d", c.Uint64("batch"))
	}

	client, err := a.client(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	f, err := newFetcher(a.logger, a.settings.ChainCfgParams, source, client, batch, a.out)
	if err != nil {
		return err
	}

	_, err = f.run(c.Context, count)

	return err
}

func newFetcher(logger ulogger.Logger, params *chaincfg.Params, source headerSource, target headerSubmitter, batch uint32,
	out io.Writer) (*fetcher, error) {
	retarget, err := verifier.NewRetarget(params)
	if err != nil {
		return nil, err
	}

	return &fetcher{
		logger:   logger,
		params:   params,
		retarget: retarget,
		source:   source,
		target:   target,
		batch:    batch,
		out:      out,
	}, nil
}

// run submits up to count headers above the light client's tip, all the
// node has when count is 0, and returns the final tip.
func (f *fetcher) run(ctx context.Context, count uint32) (*model.ChainTip, error) {
	tip, err := f.target.Tip(ctx)
	if err != nil {
		return nil, err
	}

	best, err := f.source.GetBlockCount(ctx)
	if err != nil {
		return nil, err
	}

	end := best
	if count > 0 && uint64(tip.Height)+uint64(count) < uint64(best) {
		end = tip.Height + count
	}

	for tip.Height < end {
		n := min(f.batch, end-tip.Height)

		blob, err := f.batchBlob(ctx, tip, n)
		if err != nil {
			return tip, err
		}

		if tip, err = f.target.Submit(ctx, tip.Hash, blob); err != nil {
			return nil, err
		}

		fmt.Fprintf(f.out, "%d %s\n", tip.Height, tip.Hash)
	}

	return tip, nil
}

// batchBlob reads n headers above tip, prefixed with the first and last
// header of the tip's epoch when the batch reaches the next boundary.
func (f *fetcher) batchBlob(ctx context.Context, tip *model.ChainTip, n uint32) ([]byte, error) {
	blob := make([]byte, 0, (n+2)*model.BlockHeaderSize)

	if f.needsEvidence(tip.Height, n) {
		epochStart := f.retarget.EpochStart(tip.Height)

		for _, height := range []uint32{epochStart, epochStart + f.retarget.Interval() - 1} {
			raw, err := f.source.GetHeaderByHeight(ctx, height)
			if err != nil {
				return nil, err
			}

			blob = append(blob, raw...)
		}
	}

	for height := tip.Height + 1; height <= tip.Height+n; height++ {
		raw, err := f.source.GetHeaderByHeight(ctx, height)
		if err != nil {
			return nil, err
		}

		if height == tip.Height+1 {
			header, err := model.NewBlockHeaderFromBytes(raw)
			if err != nil {
				return nil, err
			}

			if !header.HashPrevBlock.IsEqual(tip.Hash) {
				return nil, errors.NewInvalidParentError("node header at %d does not extend tip %s", height, tip.Hash)
			}
		}

		blob = append(blob, raw...)
	}

	f.logger.Debugf("[fetch] read %d headers from %d", n, tip.Height+1)

	return blob, nil
}

func (f *fetcher) needsEvidence(parentHeight, n uint32) bool {
	if f.params.NoDifficultyAdjustment {
		return false
	}

	nextBoundary := uint64(f.retarget.EpochStart(parentHeight)) + uint64(f.retarget.Interval())

	return uint64(parentHeight)+uint64(n) >= nextBoundary
}
