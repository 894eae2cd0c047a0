package sql

import (
	"context"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/util/usql"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Apply writes the update in a single transaction. The pool holds one
// sqlite connection, so only tx may be used inside it.
func (s *SQL) Apply(ctx context.Context, update *headerchain.Update) error {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:Apply")
	defer deferFn()

	if update == nil || update.Tip == nil || update.Tip.Hash == nil {
		return errors.NewInvalidArgumentError("update without a tip")
	}

	err := s.db.WithTx(ctx, func(tx *usql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tip`).Scan(&count); err != nil {
			return errors.NewStorageError("failed to read tip", err)
		}

		if count == 0 {
			return errors.NewStateNotInitializedError("header chain not initialized")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE height > $1`, update.ForkHeight); err != nil {
			return errors.NewStorageError("failed to drop entries above %d", update.ForkHeight, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM epochs WHERE height > $1`, update.ForkHeight); err != nil {
			return errors.NewStorageError("failed to drop epochs above %d", update.ForkHeight, err)
		}

		for _, e := range update.Entries {
			if err := insertEntry(ctx, tx, e.Height, e.Hash); err != nil {
				return err
			}
		}

		for i := range update.Epochs {
			if err := upsertEpoch(ctx, tx, &update.Epochs[i]); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE height < $1`, update.PruneHeight); err != nil {
			return errors.NewStorageError("failed to prune entries below %d", update.PruneHeight, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM epochs WHERE height < $1`, update.EpochPruneHeight); err != nil {
			return errors.NewStorageError("failed to prune epochs below %d", update.EpochPruneHeight, err)
		}

		tip := update.Tip

		if _, err := tx.ExecContext(ctx, `
			UPDATE tip
			SET height = $1
			   ,hash = $2
			   ,n_bits = $3
			   ,epoch_height = $4
			   ,epoch_hash = $5
			   ,epoch_time = $6
			   ,chain_work = $7
			   ,updated_at = CURRENT_TIMESTAMP
			WHERE id = 1
		`, tip.Height, tip.Hash.CloneBytes(), tip.Bits.CloneBytes(), tip.EpochStart.Height,
			optionalHash(tip.EpochStart.Hash), tip.EpochStart.Timestamp, chainWorkBytes(tip)); err != nil {
			return errors.NewStorageError("failed to update tip", err)
		}

		return nil
	})
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return err
		}

		return errors.NewStorageError("failed to apply update at %d", update.Tip.Height, err)
	}

	return nil
}

func insertTip(ctx context.Context, tx *usql.Tx, tip *model.ChainTip) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tip (id, height, hash, n_bits, epoch_height, epoch_hash, epoch_time, chain_work)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
	`, tip.Height, tip.Hash.CloneBytes(), tip.Bits.CloneBytes(), tip.EpochStart.Height,
		optionalHash(tip.EpochStart.Hash), tip.EpochStart.Timestamp, chainWorkBytes(tip)); err != nil {
		return errors.NewStorageError("failed to insert tip", err)
	}

	return nil
}

// insertEntry replaces whatever is retained at height. The hash index is
// unique, so a stale row holding the same hash at another height goes too.
func insertEntry(ctx context.Context, tx *usql.Tx, height uint32, hash *chainhash.Hash) error {
	if hash == nil {
		return errors.NewInvalidArgumentError("entry %d without a hash", height)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE hash = $1 AND height <> $2`, hash.CloneBytes(), height); err != nil {
		return errors.NewStorageError("failed to clear entry %s", hash, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (height, hash)
		VALUES ($1, $2)
		ON CONFLICT (height) DO UPDATE SET hash = excluded.hash
	`, height, hash.CloneBytes()); err != nil {
		return errors.NewStorageError("failed to insert entry %d", height, err)
	}

	return nil
}

func upsertEpoch(ctx context.Context, tx *usql.Tx, epoch *model.EpochStart) error {
	if epoch.Hash == nil {
		return errors.NewInvalidArgumentError("epoch %d without a hash", epoch.Height)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO epochs (height, hash, block_time, n_bits)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (height) DO UPDATE SET hash = excluded.hash, block_time = excluded.block_time, n_bits = excluded.n_bits
	`, epoch.Height, epoch.Hash.CloneBytes(), epoch.Timestamp, epoch.Bits.CloneBytes()); err != nil {
		return errors.NewStorageError("failed to write epoch %d", epoch.Height, err)
	}

	return nil
}
