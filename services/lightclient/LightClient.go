// Package lightclient owns the canonical tip of a proof-of-work header chain.
//
// A LightClient accepts verified updates from authorized submitters, applies
// the fork policy and persists the result through a headerchain.Store. Every
// update is applied completely or not at all.
package lightclient

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/verifier"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util/health"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
)

type LightClient struct {
	mu       sync.Mutex
	logger   ulogger.Logger
	settings *settings.Settings
	params   *chaincfg.Params
	retarget *verifier.Retarget
	store    headerchain.Store
	notifier Notifier
	retain   uint32
}

// New returns a LightClient over store. notifier may be nil.
func New(logger ulogger.Logger, tSettings *settings.Settings, store headerchain.Store, notifier Notifier) (*LightClient, error) {
	initPrometheusMetrics()

	if store == nil {
		return nil, errors.NewInvalidArgumentError("store is required")
	}

	params := tSettings.ChainCfgParams

	retarget, err := verifier.NewRetarget(params)
	if err != nil {
		return nil, err
	}

	retain, err := safeconversion.IntToUint32(tSettings.LightClient.RetainHeaders)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid lightclient_retainHeaders %d", tSettings.LightClient.RetainHeaders, err)
	}

	return &LightClient{
		logger:   logger,
		settings: tSettings,
		params:   params,
		retarget: retarget,
		store:    store,
		notifier: notifier,
		retain:   retain,
	}, nil
}

func (lc *LightClient) Retarget() *verifier.Retarget {
	return lc.retarget
}

func (lc *LightClient) Params() *chaincfg.Params {
	return lc.params
}

// Initialize sets the immutable genesis, which also becomes the tip, and the
// initial set of submitters. It fails once the store holds a genesis.
func (lc *LightClient) Initialize(ctx context.Context, genesis *model.Genesis, submitters []string) error {
	if genesis == nil || genesis.Hash == nil {
		return errors.NewInvalidArgumentError("genesis hash is required")
	}

	if _, err := genesis.Bits.Target(); err != nil {
		return errors.NewInvalidArgumentError("genesis bits %s do not decode", genesis.Bits, err)
	}

	epoch := model.EpochStart{
		Height: genesis.Height,
		Hash:   genesis.Hash,
		Bits:   genesis.Bits,
	}

	if !lc.params.NoDifficultyAdjustment {
		epoch.Height = lc.retarget.EpochStart(genesis.Height)

		switch {
		case lc.retarget.IsBoundary(genesis.Height):
			epoch.Timestamp = genesis.Timestamp
		case genesis.EpochStartHash == nil:
			return errors.NewInvalidArgumentError("genesis at %d is inside an epoch and needs the hash of the header at %d", genesis.Height, epoch.Height)
		default:
			epoch.Hash = genesis.EpochStartHash
		}
	} else {
		epoch.Timestamp = genesis.Timestamp
	}

	for _, id := range submitters {
		if id == "" {
			return errors.NewInvalidArgumentError("empty submitter id")
		}
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if err := lc.store.Initialize(ctx, &headerchain.State{
		Genesis: genesis,
		Tip: &model.ChainTip{
			Height:     genesis.Height,
			Hash:       genesis.Hash,
			Bits:       genesis.Bits,
			EpochStart: epoch,
			ChainWork:  &chainhash.Hash{},
		},
		Epoch:      epoch,
		Submitters: submitters,
	}); err != nil {
		return err
	}

	prometheusLightClientTipHeight.Set(float64(genesis.Height))

	lc.logger.Infof("[LightClient][Initialize] genesis %s at %d, epoch %d, %d submitters", genesis.Hash, genesis.Height, epoch.Height, len(submitters))

	return nil
}

// InitializeFromSettings initializes from the lightclient_genesis_* settings,
// doing nothing when the store already holds the same genesis.
func (lc *LightClient) InitializeFromSettings(ctx context.Context) error {
	genesis, err := GenesisFromSettings(lc.settings)
	if err != nil {
		return err
	}

	err = lc.Initialize(ctx, genesis, lc.settings.LightClient.Submitters)
	if !errors.Is(err, errors.ErrStateInitialized) {
		return err
	}

	stored, err := lc.store.GetGenesis(ctx)
	if err != nil {
		return err
	}

	if stored.Height != genesis.Height || !stored.Hash.IsEqual(genesis.Hash) {
		return errors.NewConfigurationError("store holds genesis %s at %d, configured genesis is %s at %d", stored.Hash, stored.Height, genesis.Hash, genesis.Height)
	}

	return nil
}

func (lc *LightClient) BestBlockHeight(ctx context.Context) (uint32, error) {
	tip, err := lc.store.GetTip(ctx)
	if err != nil {
		return 0, err
	}

	return tip.Height, nil
}

func (lc *LightClient) BestBlockHash(ctx context.Context) (*chainhash.Hash, error) {
	tip, err := lc.store.GetTip(ctx)
	if err != nil {
		return nil, err
	}

	return tip.Hash, nil
}

func (lc *LightClient) Tip(ctx context.Context) (*model.ChainTip, error) {
	return lc.store.GetTip(ctx)
}

func (lc *LightClient) Genesis(ctx context.Context) (*model.Genesis, error) {
	return lc.store.GetGenesis(ctx)
}

// ParentContext describes a retained header of the accepted chain: its
// height, the target of its epoch and the epoch's first header.
func (lc *LightClient) ParentContext(ctx context.Context, hash *chainhash.Hash) (*ParentContext, error) {
	entry, err := lc.store.GetEntry(ctx, hash)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewUnknownParentError("parent %s is not a retained header", hash)
		}

		return nil, err
	}

	tip, err := lc.store.GetTip(ctx)
	if err != nil {
		return nil, err
	}

	epoch, err := lc.epochOf(ctx, entry.Height, tip)
	if err != nil {
		return nil, err
	}

	target, err := epoch.Bits.Target()
	if err != nil {
		return nil, errors.NewStorageError("stored epoch %d has invalid bits %s", epoch.Height, epoch.Bits, err)
	}

	return &ParentContext{
		Height:     entry.Height,
		Hash:       entry.Hash,
		Bits:       epoch.Bits,
		Target:     target,
		EpochStart: *epoch,
	}, nil
}

// epochOf returns the stored epoch covering height. Networks without
// difficulty adjustment only ever have the genesis epoch.
func (lc *LightClient) epochOf(ctx context.Context, height uint32, tip *model.ChainTip) (*model.EpochStart, error) {
	if lc.params.NoDifficultyAdjustment {
		epoch := tip.EpochStart
		return &epoch, nil
	}

	epoch, err := lc.store.GetEpoch(ctx, lc.retarget.EpochStart(height))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewStorageError("epoch of height %d is not retained", height, err)
		}

		return nil, err
	}

	return epoch, nil
}

func (lc *LightClient) IsAuthorized(ctx context.Context, submitterID string) (bool, error) {
	ids, err := lc.store.GetSubmitters(ctx)
	if err != nil {
		return false, err
	}

	i := sort.SearchStrings(ids, submitterID)

	return i < len(ids) && ids[i] == submitterID, nil
}

func (lc *LightClient) Authorize(ctx context.Context, submitterID string) error {
	if submitterID == "" {
		return errors.NewInvalidArgumentError("empty submitter id")
	}

	if err := lc.store.SetSubmitter(ctx, submitterID, true); err != nil {
		return err
	}

	lc.logger.Infof("[LightClient][Authorize] %s", submitterID)

	return nil
}

func (lc *LightClient) Revoke(ctx context.Context, submitterID string) error {
	if err := lc.store.SetSubmitter(ctx, submitterID, false); err != nil {
		return err
	}

	lc.logger.Infof("[LightClient][Revoke] %s", submitterID)

	return nil
}

func (lc *LightClient) Submitters(ctx context.Context) ([]string, error) {
	return lc.store.GetSubmitters(ctx)
}

func (lc *LightClient) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := []health.Check{
		{Name: "HeaderChainStore", Check: lc.store.Health},
	}

	if h, ok := lc.notifier.(interface {
		Health(ctx context.Context, checkLiveness bool) (int, string, error)
	}); ok {
		checks = append(checks, health.Check{Name: "TipNotifier", Check: h.Health})
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}
