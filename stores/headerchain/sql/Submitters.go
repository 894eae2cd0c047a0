package sql

import (
	"context"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/util/usql"
)

func (s *SQL) GetSubmitters(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM submitters ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorageError("failed to read submitters", err)
	}

	defer rows.Close()

	ids := make([]string, 0, 8)

	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, errors.NewStorageError("failed to scan submitter", err)
		}

		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read submitters", err)
	}

	return ids, nil
}

func (s *SQL) SetSubmitter(ctx context.Context, id string, authorized bool) error {
	if !authorized {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM submitters WHERE id = $1`, id); err != nil {
			return errors.NewStorageError("failed to revoke %s", id, err)
		}

		return nil
	}

	return s.db.WithTx(ctx, func(tx *usql.Tx) error {
		return insertSubmitter(ctx, tx, id)
	})
}

func insertSubmitter(ctx context.Context, tx *usql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO submitters (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, id); err != nil {
		return errors.NewStorageError("failed to authorize %s", id, err)
	}

	return nil
}
