// Package tests holds conformance checks every headerchain.Store backend
// must pass.
package tests

import (
	"context"
	"testing"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(s string) *chainhash.Hash {
	h := chainhash.DoubleHashH([]byte(s))
	return &h
}

func entry(height uint32, s string) model.ChainEntry {
	return model.ChainEntry{Height: height, Hash: hashOf(s)}
}

// State returns a genesis state at height 2016 on the given bits.
func State() *headerchain.State {
	genesisHash := hashOf("genesis")
	bits := model.NewNBitFromUint32(0x207fffff)

	epoch := model.EpochStart{Height: 2016, Hash: genesisHash, Timestamp: 1_600_000_000, Bits: bits}

	return &headerchain.State{
		Genesis: &model.Genesis{
			Height:     2016,
			Hash:       genesisHash,
			Bits:       bits,
			Timestamp:  1_600_000_000,
			Commitment: []byte("commitment"),
		},
		Tip: &model.ChainTip{
			Height:     2016,
			Hash:       genesisHash,
			Bits:       bits,
			EpochStart: epoch,
			ChainWork:  &chainhash.Hash{},
		},
		Epoch:      epoch,
		Submitters: []string{"relay-b", "relay-a"},
	}
}

func Uninitialized(t *testing.T, s headerchain.Store) {
	ctx := context.Background()

	_, err := s.GetTip(ctx)
	require.ErrorIs(t, err, errors.ErrStateNotInitialized)

	_, err = s.GetGenesis(ctx)
	require.ErrorIs(t, err, errors.ErrStateNotInitialized)

	err = s.Apply(ctx, &headerchain.Update{Tip: State().Tip})
	require.ErrorIs(t, err, errors.ErrStateNotInitialized)
}

func Initialize(t *testing.T, s headerchain.Store) {
	ctx := context.Background()
	state := State()

	require.NoError(t, s.Initialize(ctx, state))

	genesis, err := s.GetGenesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Genesis.Height, genesis.Height)
	assert.Equal(t, state.Genesis.Hash, genesis.Hash)
	assert.Equal(t, state.Genesis.Bits, genesis.Bits)
	assert.Equal(t, state.Genesis.Timestamp, genesis.Timestamp)
	assert.Equal(t, state.Genesis.Commitment, genesis.Commitment)
	assert.Nil(t, genesis.EpochStartHash)

	tip, err := s.GetTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Tip, tip)

	e, err := s.GetEntryByHeight(ctx, 2016)
	require.NoError(t, err)
	assert.Equal(t, state.Genesis.Hash, e.Hash)

	epoch, err := s.GetEpoch(ctx, 2016)
	require.NoError(t, err)
	assert.Equal(t, state.Epoch, *epoch)

	submitters, err := s.GetSubmitters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"relay-a", "relay-b"}, submitters)

	err = s.Initialize(ctx, State())
	require.ErrorIs(t, err, errors.ErrStateInitialized)
}

func ApplyExtend(t *testing.T, s headerchain.Store) {
	ctx := context.Background()
	state := State()

	require.NoError(t, s.Initialize(ctx, state))

	tip := state.Tip.Clone()
	tip.Height = 2019
	tip.Hash = hashOf("2019")
	tip.ChainWork = hashOf("work")

	require.NoError(t, s.Apply(ctx, &headerchain.Update{
		Tip:        tip,
		ForkHeight: 2016,
		Entries:    []model.ChainEntry{entry(2017, "2017"), entry(2018, "2018"), entry(2019, "2019")},
	}))

	got, err := s.GetTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip, got)

	for _, h := range []uint32{2016, 2017, 2018, 2019} {
		_, err = s.GetEntryByHeight(ctx, h)
		require.NoError(t, err, "height %d", h)
	}

	e, err := s.GetEntry(ctx, hashOf("2018"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2018), e.Height)

	_, err = s.GetEntryByHeight(ctx, 2020)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.GetEntry(ctx, hashOf("missing"))
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func ApplyReorg(t *testing.T, s headerchain.Store) {
	ctx := context.Background()
	state := State()

	require.NoError(t, s.Initialize(ctx, state))

	tip := state.Tip.Clone()
	tip.Height = 2019
	tip.Hash = hashOf("2019")

	require.NoError(t, s.Apply(ctx, &headerchain.Update{
		Tip:        tip,
		ForkHeight: 2016,
		Entries:    []model.ChainEntry{entry(2017, "2017"), entry(2018, "2018"), entry(2019, "2019")},
	}))

	fork := state.Tip.Clone()
	fork.Height = 2018
	fork.Hash = hashOf("2018b")

	require.NoError(t, s.Apply(ctx, &headerchain.Update{
		Tip:        fork,
		ForkHeight: 2017,
		Entries:    []model.ChainEntry{entry(2018, "2018b")},
	}))

	e, err := s.GetEntryByHeight(ctx, 2018)
	require.NoError(t, err)
	assert.Equal(t, hashOf("2018b"), e.Hash)

	_, err = s.GetEntryByHeight(ctx, 2019)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.GetEntry(ctx, hashOf("2018"))
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.GetEntry(ctx, hashOf("2019"))
	require.ErrorIs(t, err, errors.ErrNotFound)

	got, err := s.GetTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, fork, got)
}

func ApplyEpochsAndPrune(t *testing.T, s headerchain.Store) {
	ctx := context.Background()
	state := State()

	require.NoError(t, s.Initialize(ctx, state))

	bits := model.NewNBitFromUint32(0x203ff7de)
	epoch := model.EpochStart{Height: 4032, Hash: hashOf("4032"), Timestamp: 1_600_600_000, Bits: bits}

	tip := &model.ChainTip{
		Height:     4033,
		Hash:       hashOf("4033"),
		Bits:       bits,
		EpochStart: epoch,
		ChainWork:  hashOf("work"),
	}

	require.NoError(t, s.Apply(ctx, &headerchain.Update{
		Tip:              tip,
		ForkHeight:       2016,
		Entries:          []model.ChainEntry{entry(4031, "4031"), entry(4032, "4032"), entry(4033, "4033")},
		Epochs:           []model.EpochStart{epoch},
		PruneHeight:      4032,
		EpochPruneHeight: 4032,
	}))

	_, err := s.GetEntryByHeight(ctx, 2016)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.GetEntryByHeight(ctx, 4031)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.GetEpoch(ctx, 2016)
	require.ErrorIs(t, err, errors.ErrNotFound)

	got, err := s.GetEpoch(ctx, 4032)
	require.NoError(t, err)
	assert.Equal(t, epoch, *got)

	gotTip, err := s.GetTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip, gotTip)

	genesis, err := s.GetGenesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(2016), genesis.Height)
}

func Submitters(t *testing.T, s headerchain.Store) {
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx, State()))

	require.NoError(t, s.SetSubmitter(ctx, "relay-c", true))
	require.NoError(t, s.SetSubmitter(ctx, "relay-c", true))
	require.NoError(t, s.SetSubmitter(ctx, "relay-a", false))
	require.NoError(t, s.SetSubmitter(ctx, "unknown", false))

	ids, err := s.GetSubmitters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"relay-b", "relay-c"}, ids)
}
