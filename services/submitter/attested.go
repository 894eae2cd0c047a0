package submitter

import (
	"context"
	"sync"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient"
	"github.com/bitcoin-sv/btcx/services/verifier"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jellydator/ttlcache/v3"
	"github.com/kpango/fastime"
	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
)

// PendingRequest is an attestation the relay has been asked for.
type PendingRequest struct {
	ID           string
	FunctionID   string
	ParentHash   *chainhash.Hash
	ParentHeight uint32
	HeaderCount  uint32
	// Retarget is set when the requested headers cross a retarget boundary.
	Retarget  bool
	CreatedAt time.Time
	fsm       *fsm.FSM
}

func (r *PendingRequest) State() string {
	return r.fsm.Current()
}

// Attestation is the relay's answer to a PendingRequest. NextTarget is only
// set for requests that cross a retarget boundary.
type Attestation struct {
	RequestID   string
	FunctionID  string
	HeaderCount uint32
	ParentHash  *chainhash.Hash
	Hashes      []*chainhash.Hash
	NextTarget  *uint256.Int
}

// Attested applies headers proven by an external relay.
type Attested struct {
	logger        ulogger.Logger
	id            string
	client        ChainClient
	relay         Relay
	retarget      *verifier.Retarget
	verifyTable   *FunctionTable
	retargetTable *FunctionTable
	callbackURL   string
	mu            sync.Mutex
	pending       *ttlcache.Cache[string, *PendingRequest]
	started       atomic.Bool
}

func NewAttested(logger ulogger.Logger, tSettings *settings.Settings, client ChainClient, relay Relay) (*Attested, error) {
	initPrometheusMetrics()

	cfg := tSettings.Submitter

	if cfg.AttestedID == "" {
		return nil, errors.NewConfigurationError("submitter_attestedID is not set")
	}

	if relay == nil {
		return nil, errors.NewConfigurationError("attested submitter needs a relay")
	}

	verifyTable, err := NewFunctionTable(cfg.VerifyFunctions)
	if err != nil {
		return nil, err
	}

	if len(verifyTable.entries) == 0 {
		return nil, errors.NewConfigurationError("submitter_verifyFunctions is empty")
	}

	retargetTable, err := NewFunctionTable(cfg.RetargetFunctions)
	if err != nil {
		return nil, err
	}

	retarget, err := verifier.NewRetarget(client.Params())
	if err != nil {
		return nil, err
	}

	ttl := cfg.RequestTTL
	if ttl <= 0 {
		return nil, errors.NewConfigurationError("submitter_requestTTL must be positive, got %s", ttl)
	}

	a := &Attested{
		logger:        logger,
		id:            cfg.AttestedID,
		client:        client,
		relay:         relay,
		retarget:      retarget,
		verifyTable:   verifyTable,
		retargetTable: retargetTable,
		callbackURL:   cfg.CallbackURL,
		pending: ttlcache.New[string, *PendingRequest](
			ttlcache.WithTTL[string, *PendingRequest](ttl),
			ttlcache.WithDisableTouchOnHit[string, *PendingRequest](),
		),
	}

	a.pending.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *PendingRequest]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}

		req := item.Value()
		if err := req.fsm.Event(ctx, EventExpire); err != nil {
			a.logger.Debugf("[Attested] request %s expired in state %s: %v", req.ID, req.State(), err)
			return
		}

		a.logger.Warnf("[Attested] request %s for %d headers from %s expired", req.ID, req.HeaderCount, req.ParentHash)
	})

	return a, nil
}

func (a *Attested) ID() string {
	return a.id
}

// Start runs the expiry loop of the pending table until Stop.
func (a *Attested) Start() {
	if a.started.CompareAndSwap(false, true) {
		go a.pending.Start()
	}
}

func (a *Attested) Stop() {
	if a.started.CompareAndSwap(true, false) {
		a.pending.Stop()
	}
}

// Pending returns a request that is still awaiting its attestation.
func (a *Attested) Pending(id string) (*PendingRequest, bool) {
	item := a.pending.Get(id)
	if item == nil {
		return nil, false
	}

	return item.Value(), true
}

// Request asks the relay to attest headerCount headers on top of parentHash.
func (a *Attested) Request(ctx context.Context, parentHash *chainhash.Hash, headerCount uint32) (req *PendingRequest, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "Attested:Request",
		tracing.WithCounter(prometheusSubmitterRequests),
		tracing.WithAttributes(attribute.Int64("headers", int64(headerCount))),
	)
	defer func() {
		deferFn(err)
	}()

	if parentHash == nil || headerCount == 0 {
		return nil, errors.NewInvalidArgumentError("parent hash and a positive header count are required")
	}

	parent, err := a.client.ParentContext(ctx, parentHash)
	if err != nil {
		return nil, err
	}

	if uint64(parent.Height)+uint64(headerCount) > uint64(^uint32(0)) {
		return nil, errors.NewInvalidArgumentError("%d headers above %d overflow the height", headerCount, parent.Height)
	}

	boundaries := a.boundaries(parent.Height, headerCount)
	if boundaries > 1 {
		return nil, errors.NewInvalidHeadersInputError("%d headers from %d cross %d retarget boundaries, at most one can be attested", headerCount, parent.Height, boundaries)
	}

	table := a.verifyTable
	if boundaries == 1 {
		table = a.retargetTable
	}

	functionID, err := table.Select(headerCount)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()

	req = &PendingRequest{
		ID:           id,
		FunctionID:   functionID,
		ParentHash:   parent.Hash,
		ParentHeight: parent.Height,
		HeaderCount:  headerCount,
		Retarget:     boundaries == 1,
		CreatedAt:    fastime.Now(),
		fsm: newRequestFSM(fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				prometheusSubmitterCallbacks.WithLabelValues(e.Dst).Inc()
				a.logger.Debugf("[Attested] request %s %s -> %s", id, e.Src, e.Dst)
			},
		}),
	}

	a.pending.Set(id, req, ttlcache.DefaultTTL)

	if err = a.relay.Send(ctx, &RelayRequest{
		ID:          id,
		FunctionID:  functionID,
		ParentHash:  parent.Hash.String(),
		HeaderCount: headerCount,
		CallbackURL: a.callbackURL,
	}); err != nil {
		a.finish(ctx, req, EventReject)
		return nil, err
	}

	a.logger.Infof("[Attested][Request] %s: %d headers from %s at %d with %s", id, headerCount, parent.Hash, parent.Height, functionID)

	return req, nil
}

// Callback applies an attestation for a pending request. A callback that
// does not match its request is refused and the request stays pending, a
// matching one fulfils or rejects it depending on the outcome of Apply.
func (a *Attested) Callback(ctx context.Context, att *Attestation) (tip *model.ChainTip, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "Attested:Callback")
	defer func() {
		deferFn(err)
	}()

	if att == nil {
		return nil, errors.NewInvalidArgumentError("attestation is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	req, ok := a.Pending(att.RequestID)
	if !ok || req.State() != StatePending {
		return nil, errors.NewUnauthorizedError("no pending request %q", att.RequestID)
	}

	table := a.verifyTable
	if req.Retarget {
		table = a.retargetTable
	}

	if att.FunctionID != req.FunctionID || !table.Covers(att.FunctionID, att.HeaderCount) {
		return nil, errors.NewUnauthorizedError("function %q does not attest request %s", att.FunctionID, req.ID)
	}

	if att.HeaderCount != req.HeaderCount {
		return nil, errors.NewInvalidHeadersInputError("attested %d headers, %d were requested", att.HeaderCount, req.HeaderCount)
	}

	if att.ParentHash == nil || !att.ParentHash.IsEqual(req.ParentHash) {
		return nil, errors.NewInvalidHeadersInputError("attested parent %v is not the requested parent %s", att.ParentHash, req.ParentHash)
	}

	update, err := a.update(req, att)
	if err != nil {
		return nil, err
	}

	tip, err = a.client.Apply(ctx, a.id, update)
	if err != nil {
		a.finish(ctx, req, EventReject)
		return nil, err
	}

	a.finish(ctx, req, EventFulfill)

	return tip, nil
}

func (a *Attested) update(req *PendingRequest, att *Attestation) (*lightclient.Update, error) {
	if uint64(len(att.Hashes)) != uint64(req.HeaderCount) {
		return nil, errors.NewInvalidHeadersInputError("%d hashes for %d attested headers", len(att.Hashes), req.HeaderCount)
	}

	for i, h := range att.Hashes {
		if h == nil {
			return nil, errors.NewInvalidHeadersInputError("missing attested hash %d", i)
		}
	}

	update := &lightclient.Update{
		ParentHash:   req.ParentHash,
		ParentHeight: req.ParentHeight,
		TipHash:      att.Hashes[len(att.Hashes)-1],
		TipHeight:    req.ParentHeight + req.HeaderCount,
		Hashes:       att.Hashes,
	}

	if !req.Retarget {
		if att.NextTarget != nil {
			return nil, errors.NewInvalidHeadersInputError("request %s crosses no retarget boundary, next target is not expected", req.ID)
		}

		return update, nil
	}

	if att.NextTarget == nil || att.NextTarget.IsZero() || att.NextTarget.Gt(a.retarget.PowLimit()) {
		return nil, errors.NewInvalidHeadersInputError("request %s crosses a retarget boundary and needs a next target within the pow limit", req.ID)
	}

	boundary := a.retarget.EpochStart(req.ParentHeight) + a.retarget.Interval()

	update.NewTarget = att.NextTarget
	update.EpochStarts = []model.EpochStart{{
		Height: boundary,
		Hash:   att.Hashes[boundary-req.ParentHeight-1],
		Bits:   model.NewNBitFromUint32(model.TargetToCompact(att.NextTarget)),
	}}

	return update, nil
}

// boundaries counts the retarget boundaries in (parentHeight, parentHeight+count].
func (a *Attested) boundaries(parentHeight, count uint32) uint64 {
	if a.client.Params().NoDifficultyAdjustment {
		return 0
	}

	interval := uint64(a.retarget.Interval())
	first := uint64(a.retarget.EpochStart(parentHeight)) + interval
	last := uint64(parentHeight) + uint64(count)

	if last < first {
		return 0
	}

	return 1 + (last-first)/interval
}

func (a *Attested) finish(ctx context.Context, req *PendingRequest, event string) {
	if err := req.fsm.Event(ctx, event); err != nil {
		a.logger.Warnf("[Attested] request %s could not %s from %s: %v", req.ID, event, req.State(), err)
	}

	a.pending.Delete(req.ID)
}
