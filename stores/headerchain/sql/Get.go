package sql

import (
	"context"
	"database/sql"
	"errors"

	berrors "github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
)

func (s *SQL) GetGenesis(ctx context.Context) (*model.Genesis, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetGenesis")
	defer deferFn()

	var (
		height, blockTime      int64
		hash, bits, commitment []byte
		epochStartHash         []byte
	)

	if err := s.db.QueryRowContext(ctx, `
		SELECT height, hash, n_bits, block_time, commitment, epoch_start_hash
		FROM genesis
		WHERE id = 1
	`).Scan(&height, &hash, &bits, &blockTime, &commitment, &epochStartHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, berrors.NewStateNotInitializedError("header chain not initialized")
		}

		return nil, berrors.NewStorageError("failed to read genesis", err)
	}

	g := &model.Genesis{Commitment: commitment}

	var err error

	if g.Height, err = safeconversion.Int64ToUint32(height); err != nil {
		return nil, berrors.NewStorageError("invalid genesis height", err)
	}

	if g.Timestamp, err = safeconversion.Int64ToUint32(blockTime); err != nil {
		return nil, berrors.NewStorageError("invalid genesis timestamp", err)
	}

	if g.Hash, err = chainhash.NewHash(hash); err != nil {
		return nil, berrors.NewStorageError("invalid genesis hash", err)
	}

	if g.Bits, err = model.NewNBitFromSlice(bits); err != nil {
		return nil, berrors.NewStorageError("invalid genesis bits", err)
	}

	if len(epochStartHash) > 0 {
		if g.EpochStartHash, err = chainhash.NewHash(epochStartHash); err != nil {
			return nil, berrors.NewStorageError("invalid genesis epoch start hash", err)
		}
	}

	return g, nil
}

func (s *SQL) GetTip(ctx context.Context) (*model.ChainTip, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetTip")
	defer deferFn()

	var (
		height, epochHeight, epochTime   int64
		hash, bits, epochHash, chainWork []byte
	)

	if err := s.db.QueryRowContext(ctx, `
		SELECT height, hash, n_bits, epoch_height, epoch_hash, epoch_time, chain_work
		FROM tip
		WHERE id = 1
	`).Scan(&height, &hash, &bits, &epochHeight, &epochHash, &epochTime, &chainWork); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, berrors.NewStateNotInitializedError("header chain not initialized")
		}

		return nil, berrors.NewStorageError("failed to read tip", err)
	}

	tip := &model.ChainTip{}

	var err error

	if tip.Height, err = safeconversion.Int64ToUint32(height); err != nil {
		return nil, berrors.NewStorageError("invalid tip height", err)
	}

	if tip.Hash, err = chainhash.NewHash(hash); err != nil {
		return nil, berrors.NewStorageError("invalid tip hash", err)
	}

	if tip.Bits, err = model.NewNBitFromSlice(bits); err != nil {
		return nil, berrors.NewStorageError("invalid tip bits", err)
	}

	if tip.EpochStart, err = scanEpoch(epochHeight, epochHash, epochTime, bits); err != nil {
		return nil, err
	}

	if tip.ChainWork, err = chainhash.NewHash(chainWork); err != nil {
		return nil, berrors.NewStorageError("invalid chain work", err)
	}

	return tip, nil
}

func (s *SQL) GetEntry(ctx context.Context, hash *chainhash.Hash) (*model.ChainEntry, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetEntry")
	defer deferFn()

	if hash == nil {
		return nil, berrors.NewInvalidArgumentError("hash is required")
	}

	var height int64

	if err := s.db.QueryRowContext(ctx, `
		SELECT height
		FROM entries
		WHERE hash = $1
	`, hash.CloneBytes()).Scan(&height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, berrors.NewNotFoundError("header %s is not retained", hash)
		}

		return nil, berrors.NewStorageError("failed to read entry %s", hash, err)
	}

	h, err := safeconversion.Int64ToUint32(height)
	if err != nil {
		return nil, berrors.NewStorageError("invalid entry height", err)
	}

	return &model.ChainEntry{Height: h, Hash: hash}, nil
}

func (s *SQL) GetEntryByHeight(ctx context.Context, height uint32) (*model.ChainEntry, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetEntryByHeight")
	defer deferFn()

	var hashBytes []byte

	if err := s.db.QueryRowContext(ctx, `
		SELECT hash
		FROM entries
		WHERE height = $1
	`, height).Scan(&hashBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, berrors.NewNotFoundError("no header retained at height %d", height)
		}

		return nil, berrors.NewStorageError("failed to read entry at %d", height, err)
	}

	hash, err := chainhash.NewHash(hashBytes)
	if err != nil {
		return nil, berrors.NewStorageError("invalid entry hash", err)
	}

	return &model.ChainEntry{Height: height, Hash: hash}, nil
}

func (s *SQL) GetEpoch(ctx context.Context, height uint32) (*model.EpochStart, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetEpoch")
	defer deferFn()

	var (
		blockTime  int64
		hash, bits []byte
	)

	if err := s.db.QueryRowContext(ctx, `
		SELECT hash, block_time, n_bits
		FROM epochs
		WHERE height = $1
	`, height).Scan(&hash, &blockTime, &bits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, berrors.NewNotFoundError("no epoch retained at height %d", height)
		}

		return nil, berrors.NewStorageError("failed to read epoch at %d", height, err)
	}

	epoch, err := scanEpoch(int64(height), hash, blockTime, bits)
	if err != nil {
		return nil, err
	}

	return &epoch, nil
}

func scanEpoch(height int64, hash []byte, blockTime int64, bits []byte) (model.EpochStart, error) {
	var (
		epoch model.EpochStart
		err   error
	)

	if epoch.Height, err = safeconversion.Int64ToUint32(height); err != nil {
		return epoch, berrors.NewStorageError("invalid epoch height", err)
	}

	if epoch.Timestamp, err = safeconversion.Int64ToUint32(blockTime); err != nil {
		return epoch, berrors.NewStorageError("invalid epoch timestamp", err)
	}

	if epoch.Hash, err = chainhash.NewHash(hash); err != nil {
		return epoch, berrors.NewStorageError("invalid epoch hash", err)
	}

	if epoch.Bits, err = model.NewNBitFromSlice(bits); err != nil {
		return epoch, berrors.NewStorageError("invalid epoch bits", err)
	}

	return epoch, nil
}

func chainWorkBytes(tip *model.ChainTip) []byte {
	if tip.ChainWork == nil {
		return make([]byte, chainhash.HashSize)
	}

	return tip.ChainWork.CloneBytes()
}

func optionalHash(h *chainhash.Hash) []byte {
	if h == nil {
		return nil
	}

	return h.CloneBytes()
}
