package lightclient

import (
	"context"
	"sync"
	"testing"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient/work"
	"github.com/bitcoin-sv/btcx/services/verifier"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bitcoin-sv/btcx/stores/headerchain/memory"
	"github.com/bitcoin-sv/btcx/stores/headerchain/sql"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util/test"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	submitter = "direct"
	startTime = test.UnitTestStartTime
)

var (
	easyBits     = model.NewNBitFromUint32(test.UnitTestBits)
	retargetBits = model.NewNBitFromUint32(test.UnitTestRetargetBits)
)

func getChain() *test.Chain {
	return test.UnitTestChain()
}

var (
	forkOnce sync.Once
	fork     *test.Chain
)

// getFork mines 100 headers on top of height 400 of getChain.
func getFork() *test.Chain {
	forkOnce.Do(func() {
		c := getChain()
		fork = test.MineChain(c.Headers[400].Hash(), 2, startTime+400*300+150, 300, 100, easyBits)
	})

	return fork
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []*model.TipNotification
	err           error
}

func (r *recordingNotifier) Publish(_ context.Context, n *model.TipNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)

	return r.err
}

func testSettings(retain int) *settings.Settings {
	tSettings := test.CreateBaseTestSettings()
	tSettings.LightClient.RetainHeaders = retain

	return tSettings
}

func genesisOf(c *test.Chain) *model.Genesis {
	h := c.Headers[0]

	return &model.Genesis{
		Height:     0,
		Hash:       h.Hash(),
		Bits:       h.Bits,
		Timestamp:  h.Timestamp,
		Commitment: []byte{0xca, 0xfe},
	}
}

func newLightClient(t *testing.T, store headerchain.Store, notifier Notifier, retain int) *LightClient {
	t.Helper()

	lc, err := New(ulogger.TestLogger{}, testSettings(retain), store, notifier)
	require.NoError(t, err)

	require.NoError(t, lc.Initialize(context.Background(), genesisOf(getChain()), []string{submitter}))

	return lc
}

func newVerifier(t *testing.T) *verifier.Verifier {
	t.Helper()

	v, err := verifier.New(ulogger.TestLogger{}, test.UnitTestParams())
	require.NoError(t, err)

	return v
}

// submit verifies c.Headers[from:to] on top of c.Headers[from-1] at parentHeight.
func submit(t *testing.T, lc *LightClient, c *test.Chain, parentHeight uint32, parentHash *chainhash.Hash, from, to int) (*model.ChainTip, error) {
	t.Helper()

	ctx := context.Background()

	pc, err := lc.ParentContext(ctx, parentHash)
	require.NoError(t, err)

	r, err := newVerifier(t).Verify(ctx, parentHeight, parentHash, pc.Target, c.Blob(from, to))
	require.NoError(t, err)

	return lc.Apply(ctx, submitter, UpdateFromResult(parentHeight, parentHash, r))
}

func blockWork(bits model.NBit, n uint64) *uint256.Int {
	w := work.CalcBlockWork(bits.Uint32())
	return w.Mul(w, uint256.NewInt(n))
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 1000)

	height, err := lc.BestBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), height)

	hash, err := lc.BestBlockHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Headers[0].Hash(), hash)

	genesis, err := lc.Genesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, genesis.Commitment)

	tip, err := lc.Tip(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), tip.EpochStart.Height)
	assert.Equal(t, c.Headers[0].Timestamp, tip.EpochStart.Timestamp)
	assert.True(t, work.ToInt(tip.ChainWork).IsZero())

	err = lc.Initialize(ctx, genesisOf(c), nil)
	require.ErrorIs(t, err, errors.ErrStateInitialized)
}

func TestInitializeMidEpoch(t *testing.T) {
	ctx := context.Background()
	c := getChain()

	lc, err := New(ulogger.TestLogger{}, testSettings(1000), memory.New(ulogger.TestLogger{}), nil)
	require.NoError(t, err)

	genesis := &model.Genesis{Height: 1000, Hash: c.Headers[1000].Hash(), Bits: easyBits}

	err = lc.Initialize(ctx, genesis, []string{submitter})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	genesis.EpochStartHash = c.Headers[0].Hash()
	require.NoError(t, lc.Initialize(ctx, genesis, []string{submitter}))

	pc, err := lc.ParentContext(ctx, c.Headers[1000].Hash())
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), pc.Height)
	assert.Equal(t, c.Headers[0].Hash(), pc.EpochStart.Hash)
	assert.Equal(t, uint32(0), pc.EpochStart.Height)

	tip, err := submit(t, lc, c, 1000, c.Headers[1000].Hash(), 1001, 1101)
	require.NoError(t, err)
	assert.Equal(t, uint32(1100), tip.Height)
}

func TestInitializeRejectsBadInput(t *testing.T) {
	lc, err := New(ulogger.TestLogger{}, testSettings(1000), memory.New(ulogger.TestLogger{}), nil)
	require.NoError(t, err)

	ctx := context.Background()

	require.ErrorIs(t, lc.Initialize(ctx, nil, nil), errors.ErrInvalidArgument)
	require.ErrorIs(t, lc.Initialize(ctx, &model.Genesis{Hash: &chainhash.Hash{}, Bits: model.NewNBitFromUint32(0x1d80ffff)}, nil), errors.ErrInvalidArgument)
	require.ErrorIs(t, lc.Initialize(ctx, genesisOf(getChain()), []string{""}), errors.ErrInvalidArgument)

	_, err = New(ulogger.TestLogger{}, testSettings(1000), nil, nil)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = New(ulogger.TestLogger{}, testSettings(-1), memory.New(ulogger.TestLogger{}), nil)
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestApplyFiveHundredHeaders(t *testing.T) {
	c := getChain()
	notifier := &recordingNotifier{}
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), notifier, 1000)

	tip, err := submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 501)
	require.NoError(t, err)

	assert.Equal(t, uint32(500), tip.Height)
	assert.Equal(t, c.Headers[500].Hash(), tip.Hash)
	assert.Equal(t, easyBits, tip.Bits)
	assert.Equal(t, blockWork(easyBits, 500), work.ToInt(tip.ChainWork))

	height, err := lc.BestBlockHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(500), height)

	require.Len(t, notifier.notifications, 1)
	n := notifier.notifications[0]
	assert.Equal(t, model.NotificationTipChanged, n.Type)
	assert.Equal(t, uint32(500), n.Height)
	assert.Equal(t, uint32(0), n.ForkHeight)
	assert.Equal(t, submitter, n.SubmitterID)

	pc, err := lc.ParentContext(context.Background(), c.Headers[250].Hash())
	require.NoError(t, err)
	assert.Equal(t, uint32(250), pc.Height)
}

func TestApplyForkWithLessWork(t *testing.T) {
	c := getChain()
	f := getFork()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 1000)

	_, err := submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 501)
	require.NoError(t, err)

	_, err = submit(t, lc, f, 400, c.Headers[400].Hash(), 0, 50)
	require.ErrorIs(t, err, errors.ErrForksNotSupported)

	hash, err := lc.BestBlockHash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.Headers[500].Hash(), hash)
}

func TestApplyReorg(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	f := getFork()
	notifier := &recordingNotifier{}
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), notifier, 1000)

	_, err := submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 451)
	require.NoError(t, err)

	tip, err := submit(t, lc, f, 400, c.Headers[400].Hash(), 0, 100)
	require.NoError(t, err)

	assert.Equal(t, uint32(500), tip.Height)
	assert.Equal(t, f.Tip().Hash(), tip.Hash)
	assert.Equal(t, blockWork(easyBits, 500), work.ToInt(tip.ChainWork))

	_, err = lc.ParentContext(ctx, c.Headers[450].Hash())
	require.ErrorIs(t, err, errors.ErrUnknownParent)

	pc, err := lc.ParentContext(ctx, f.Headers[20].Hash())
	require.NoError(t, err)
	assert.Equal(t, uint32(421), pc.Height)

	require.Len(t, notifier.notifications, 2)
	assert.Equal(t, uint32(400), notifier.notifications[1].ForkHeight)
}

func TestApplyRejections(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 1000)

	r, err := newVerifier(t).Verify(ctx, 0, c.Headers[0].Hash(), mustTarget(t, easyBits), c.Blob(1, 11))
	require.NoError(t, err)

	valid := func() *Update {
		return UpdateFromResult(0, c.Headers[0].Hash(), r)
	}

	t.Run("unauthorized first", func(t *testing.T) {
		_, err := lc.Apply(ctx, "stranger", nil)
		require.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	t.Run("unknown parent", func(t *testing.T) {
		u := valid()
		u.ParentHash = c.Headers[5].Hash()
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrUnknownParent)
	})

	t.Run("parent at another height", func(t *testing.T) {
		u := valid()
		u.ParentHeight = 3
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrUnknownParent)
	})

	t.Run("missing tip", func(t *testing.T) {
		u := valid()
		u.TipHash = nil
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	t.Run("hash count", func(t *testing.T) {
		u := valid()
		u.Hashes = u.Hashes[1:]
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	t.Run("last hash is not the tip", func(t *testing.T) {
		u := valid()
		u.TipHash = c.Headers[9].Hash()
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	t.Run("chain work", func(t *testing.T) {
		u := valid()
		u.ChainWork = uint256.NewInt(1)
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	t.Run("new target without a boundary", func(t *testing.T) {
		u := valid()
		u.NewTarget = mustTarget(t, retargetBits)
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	t.Run("unexpected epoch", func(t *testing.T) {
		u := valid()
		u.EpochStarts = []model.EpochStart{{Height: 5, Hash: u.Hashes[4], Bits: easyBits}}
		_, err := lc.Apply(ctx, submitter, u)
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	height, err := lc.BestBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), height)

	_, err = lc.Apply(ctx, submitter, valid())
	require.NoError(t, err)

	t.Run("same height again", func(t *testing.T) {
		_, err := lc.Apply(ctx, submitter, valid())
		require.ErrorIs(t, err, errors.ErrForksNotSupported)
	})
}

func TestApplyTipOnlyUpdate(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 1000)

	tip, err := lc.Apply(ctx, submitter, &Update{
		ParentHash:   c.Headers[0].Hash(),
		ParentHeight: 0,
		TipHash:      c.Headers[10].Hash(),
		TipHeight:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, blockWork(easyBits, 10), work.ToInt(tip.ChainWork))

	_, err = lc.ParentContext(ctx, c.Headers[5].Hash())
	require.ErrorIs(t, err, errors.ErrUnknownParent)

	_, err = lc.ParentContext(ctx, c.Headers[10].Hash())
	require.NoError(t, err)
}

func TestApplyAcrossRetargetBoundary(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 10)

	_, err := submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 2016)
	require.NoError(t, err)

	pc, err := lc.ParentContext(ctx, c.Headers[2015].Hash())
	require.NoError(t, err)
	assert.Equal(t, c.Headers[0].Hash(), pc.EpochStart.Hash)

	t.Run("fixed mode needs evidence", func(t *testing.T) {
		r, err := newVerifier(t).Verify(ctx, 2015, c.Headers[2015].Hash(), pc.Target, c.Blob(2016, 2017))
		require.ErrorIs(t, err, errors.ErrRetargetRequired)
		assert.Nil(t, r)
	})

	t.Run("boundary without epoch record", func(t *testing.T) {
		_, err := lc.Apply(ctx, submitter, &Update{
			ParentHash:   c.Headers[2015].Hash(),
			ParentHeight: 2015,
			TipHash:      c.Headers[2016].Hash(),
			TipHeight:    2016,
		})
		require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)
	})

	blob := test.Concat(c.Headers[0].Bytes(), c.Headers[2015].Bytes(), c.Blob(2016, 2021))

	r, err := newVerifier(t).VerifyWithRetargeting(ctx, 2015, c.Headers[2015].Hash(), pc.EpochStart.Hash, pc.Target, blob)
	require.NoError(t, err)

	tip, err := lc.Apply(ctx, submitter, UpdateFromResult(2015, c.Headers[2015].Hash(), r))
	require.NoError(t, err)

	assert.Equal(t, uint32(2020), tip.Height)
	assert.Equal(t, retargetBits, tip.Bits)
	assert.Equal(t, uint32(2016), tip.EpochStart.Height)
	assert.Equal(t, c.Headers[2016].Hash(), tip.EpochStart.Hash)

	expectedWork := new(uint256.Int).Add(blockWork(easyBits, 2015), blockWork(retargetBits, 5))
	assert.Equal(t, expectedWork, work.ToInt(tip.ChainWork))

	// retaining 10 headers below the epoch start keeps 2006 onwards
	_, err = lc.ParentContext(ctx, c.Headers[2005].Hash())
	require.ErrorIs(t, err, errors.ErrUnknownParent)

	pc, err = lc.ParentContext(ctx, c.Headers[2010].Hash())
	require.NoError(t, err)
	assert.Equal(t, easyBits, pc.Bits)

	pc, err = lc.ParentContext(ctx, c.Headers[2018].Hash())
	require.NoError(t, err)
	assert.Equal(t, retargetBits, pc.Bits)
	assert.Equal(t, uint32(2016), pc.EpochStart.Height)
}

func TestApplyReorgAcrossBoundary(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 100)

	_, err := submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 2016)
	require.NoError(t, err)

	pc, err := lc.ParentContext(ctx, c.Headers[2015].Hash())
	require.NoError(t, err)

	blob := test.Concat(c.Headers[0].Bytes(), c.Headers[2015].Bytes(), c.Blob(2016, 2018))

	r, err := newVerifier(t).VerifyWithRetargeting(ctx, 2015, c.Headers[2015].Hash(), pc.EpochStart.Hash, pc.Target, blob)
	require.NoError(t, err)

	_, err = lc.Apply(ctx, submitter, UpdateFromResult(2015, c.Headers[2015].Hash(), r))
	require.NoError(t, err)

	// a longer branch from 2010 replaces 2011..2017, the boundary included.
	// Its epoch ends at the same timestamp so the retarget is unchanged.
	branch := &test.Chain{}
	prev := c.Headers[2010].Hash()

	for i := 0; i < 5; i++ {
		prev = branch.Append(prev, 3, startTime+(2011+uint32(i))*300, easyBits).Hash() //nolint:gosec // test sizes
	}

	for i := 0; i < 4; i++ {
		prev = branch.Append(prev, 3, startTime+2015*300+uint32(i+1)*700, retargetBits).Hash() //nolint:gosec // test sizes
	}

	evidence := branch.Headers[4].Bytes()
	blob = test.Concat(c.Headers[0].Bytes(), evidence, branch.Blob(0, 9))

	pc, err = lc.ParentContext(ctx, c.Headers[2010].Hash())
	require.NoError(t, err)

	r, err = newVerifier(t).VerifyWithRetargeting(ctx, 2010, c.Headers[2010].Hash(), pc.EpochStart.Hash, pc.Target, blob)
	require.NoError(t, err)

	tip, err := lc.Apply(ctx, submitter, UpdateFromResult(2010, c.Headers[2010].Hash(), r))
	require.NoError(t, err)

	assert.Equal(t, uint32(2019), tip.Height)
	assert.Equal(t, branch.Headers[5].Hash(), tip.EpochStart.Hash)

	expectedWork := new(uint256.Int).Add(blockWork(easyBits, 2015), blockWork(retargetBits, 4))
	assert.Equal(t, expectedWork, work.ToInt(tip.ChainWork))

	_, err = lc.ParentContext(ctx, c.Headers[2016].Hash())
	require.ErrorIs(t, err, errors.ErrUnknownParent)
}

func TestApplyNotifierFailureKeepsTip(t *testing.T) {
	c := getChain()
	notifier := &recordingNotifier{err: errors.NewKafkaError("no brokers")}
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), notifier, 1000)

	tip, err := submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 21)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), tip.Height)
	assert.Len(t, notifier.notifications, 1)
}

func TestSubmitters(t *testing.T) {
	ctx := context.Background()
	lc := newLightClient(t, memory.New(ulogger.TestLogger{}), nil, 1000)

	ok, err := lc.IsAuthorized(ctx, "relay")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lc.Authorize(ctx, "relay"))
	require.ErrorIs(t, lc.Authorize(ctx, ""), errors.ErrInvalidArgument)

	ok, err = lc.IsAuthorized(ctx, "relay")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := lc.Submitters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{submitter, "relay"}, ids)

	require.NoError(t, lc.Revoke(ctx, submitter))

	_, err = lc.Apply(ctx, submitter, &Update{})
	require.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestLightClientOnSQLite(t *testing.T) {
	ctx := context.Background()
	c := getChain()
	f := getFork()

	store, err := sql.New(ulogger.TestLogger{}, test.MustParseURL("sqlitememory:///lightclient"), testSettings(1000))
	require.NoError(t, err)

	defer func() {
		_ = store.Close()
	}()

	lc := newLightClient(t, store, nil, 1000)

	_, err = submit(t, lc, c, 0, c.Headers[0].Hash(), 1, 451)
	require.NoError(t, err)

	tip, err := submit(t, lc, f, 400, c.Headers[400].Hash(), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), tip.Height)

	stored, err := lc.Tip(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip.Hash, stored.Hash)
	assert.Equal(t, tip.ChainWork, stored.ChainWork)
	assert.Equal(t, tip.EpochStart.Height, stored.EpochStart.Height)

	status, _, err := lc.Health(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
}

func TestRangeWork(t *testing.T) {
	epochs := []model.EpochStart{{Height: 2016, Bits: retargetBits}, {Height: 4032, Bits: easyBits}}

	assert.Equal(t, blockWork(easyBits, 15), rangeWork(2000, 2015, easyBits, epochs))
	assert.Equal(t, blockWork(retargetBits, 2), rangeWork(2015, 2017, easyBits, epochs))

	expected := new(uint256.Int).Add(blockWork(easyBits, 15), blockWork(retargetBits, 2016))
	expected.Add(expected, blockWork(easyBits, 1))
	assert.Equal(t, expected, rangeWork(2000, 4032, easyBits, epochs))

	assert.True(t, rangeWork(10, 10, easyBits, nil).IsZero())
}

func TestGenesisFromSettings(t *testing.T) {
	tSettings := testSettings(1000)
	tSettings.LightClient.Genesis = settings.GenesisSettings{
		Height:         2016,
		Hash:           "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
		Bits:           "1d00ffff",
		Commitment:     "cafe",
		Timestamp:      1231006505,
		EpochStartHash: "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048",
	}

	genesis, err := GenesisFromSettings(tSettings)
	require.NoError(t, err)
	assert.Equal(t, uint32(2016), genesis.Height)
	assert.Equal(t, "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f", genesis.Hash.String())
	assert.Equal(t, uint32(0x1d00ffff), genesis.Bits.Uint32())
	assert.Equal(t, []byte{0xca, 0xfe}, genesis.Commitment)
	assert.Equal(t, "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048", genesis.EpochStartHash.String())

	for _, mutate := range []func(*settings.GenesisSettings){
		func(g *settings.GenesisSettings) { g.Height = -1 },
		func(g *settings.GenesisSettings) { g.Hash = "zz" },
		func(g *settings.GenesisSettings) { g.Bits = "1d00ff" },
		func(g *settings.GenesisSettings) { g.Commitment = "xyz" },
		func(g *settings.GenesisSettings) { g.EpochStartHash = "nothex" },
	} {
		broken := *tSettings
		mutate(&broken.LightClient.Genesis)

		_, err = GenesisFromSettings(&broken)
		require.ErrorIs(t, err, errors.ErrConfiguration)
	}
}

func TestInitializeFromSettings(t *testing.T) {
	ctx := context.Background()
	c := getChain()

	tSettings := testSettings(1000)
	tSettings.LightClient.Genesis = settings.GenesisSettings{
		Hash:      c.Headers[0].Hash().String(),
		Bits:      "207fffff",
		Timestamp: int(c.Headers[0].Timestamp),
	}
	store := memory.New(ulogger.TestLogger{})

	lc, err := New(ulogger.TestLogger{}, tSettings, store, nil)
	require.NoError(t, err)

	require.NoError(t, lc.InitializeFromSettings(ctx))
	require.NoError(t, lc.InitializeFromSettings(ctx))

	tSettings.LightClient.Genesis.Hash = c.Headers[1].Hash().String()
	require.ErrorIs(t, lc.InitializeFromSettings(ctx), errors.ErrConfiguration)
}

func mustTarget(t *testing.T, bits model.NBit) *uint256.Int {
	t.Helper()

	target, err := bits.Target()
	require.NoError(t, err)

	return target
}
