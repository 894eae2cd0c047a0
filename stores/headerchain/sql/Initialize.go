package sql

import (
	"context"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/stores/headerchain"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/util/usql"
)

func (s *SQL) Initialize(ctx context.Context, state *headerchain.State) error {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:Initialize")
	defer deferFn()

	if state == nil || state.Genesis == nil || state.Tip == nil || state.Genesis.Hash == nil || state.Tip.Hash == nil {
		return errors.NewInvalidArgumentError("genesis and tip are required")
	}

	return s.db.WithTx(ctx, func(tx *usql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM genesis`).Scan(&count); err != nil {
			return errors.NewStorageError("failed to read genesis", err)
		}

		if count > 0 {
			return errors.NewStateInitializedError("header chain already initialized")
		}

		g := state.Genesis

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO genesis (id, height, hash, n_bits, block_time, commitment, epoch_start_hash)
			VALUES (1, $1, $2, $3, $4, $5, $6)
		`, g.Height, g.Hash.CloneBytes(), g.Bits.CloneBytes(), g.Timestamp, g.Commitment, optionalHash(g.EpochStartHash)); err != nil {
			return errors.NewStorageError("failed to insert genesis", err)
		}

		if err := insertTip(ctx, tx, state.Tip); err != nil {
			return err
		}

		if err := insertEntry(ctx, tx, state.Tip.Height, state.Tip.Hash); err != nil {
			return err
		}

		if err := upsertEpoch(ctx, tx, &state.Epoch); err != nil {
			return err
		}

		for _, id := range state.Submitters {
			if err := insertSubmitter(ctx, tx, id); err != nil {
				return err
			}
		}

		return nil
	})
}
