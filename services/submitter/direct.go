package submitter

import (
	"context"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient"
	"github.com/bitcoin-sv/btcx/services/verifier"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"go.opentelemetry.io/otel/attribute"
)

// Direct verifies raw header batches in process and applies them.
type Direct struct {
	logger   ulogger.Logger
	id       string
	client   ChainClient
	verifier *verifier.Verifier
}

func NewDirect(logger ulogger.Logger, tSettings *settings.Settings, client ChainClient) (*Direct, error) {
	initPrometheusMetrics()

	if tSettings.Submitter.DirectID == "" {
		return nil, errors.NewConfigurationError("submitter_directID is not set")
	}

	opts := []verifier.Option{verifier.WithMaxHeaders(tSettings.Verifier.MaxHeaders)}
	if tSettings.Verifier.BoundaryParentOnly {
		opts = append(opts, verifier.WithBoundaryParentOnly())
	}

	v, err := verifier.New(logger, client.Params(), opts...)
	if err != nil {
		return nil, err
	}

	return &Direct{
		logger:   logger,
		id:       tSettings.Submitter.DirectID,
		client:   client,
		verifier: v,
	}, nil
}

func (d *Direct) ID() string {
	return d.id
}

// Submit verifies headers on top of parentHash and applies the result. A
// batch that reaches the next retarget boundary must be prefixed with the
// first and last header of the parent's epoch.
func (d *Direct) Submit(ctx context.Context, parentHash *chainhash.Hash, headers []byte) (tip *model.ChainTip, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "Direct:Submit",
		tracing.WithHistogram(prometheusSubmitterDirect),
		tracing.WithAttributes(attribute.Int("bytes", len(headers))),
	)
	defer func() {
		deferFn(err)
	}()

	if parentHash == nil {
		return nil, errors.NewInvalidArgumentError("parent hash is required")
	}

	parent, err := d.client.ParentContext(ctx, parentHash)
	if err != nil {
		return nil, err
	}

	var result *verifier.Result

	if d.needsRetarget(parent.Height, len(headers)/model.BlockHeaderSize) {
		result, err = d.verifier.VerifyWithRetargeting(ctx, parent.Height, parent.Hash, parent.EpochStart.Hash, parent.Target, headers)
	} else {
		result, err = d.verifier.Verify(ctx, parent.Height, parent.Hash, parent.Target, headers)
	}

	if err != nil {
		return nil, err
	}

	return d.client.Apply(ctx, d.id, lightclient.UpdateFromResult(parent.Height, parent.Hash, result))
}

// needsRetarget reports whether a batch of records, less the two evidence
// headers, reaches the first boundary above parentHeight.
func (d *Direct) needsRetarget(parentHeight uint32, records int) bool {
	if records <= 2 || d.client.Params().NoDifficultyAdjustment {
		return false
	}

	r := d.verifier.Retarget()
	nextBoundary := uint64(r.EpochStart(parentHeight)) + uint64(r.Interval())

	return uint64(parentHeight)+uint64(records-2) >= nextBoundary //nolint:gosec // records > 2
}
