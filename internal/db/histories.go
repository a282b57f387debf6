package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-versions/internal/store"
	"github.com/jonathan/resume-versions/internal/types"
)

// DB satisfies the version store contract with one row per company
var _ store.VersionStore = (*DB)(nil)

// Put upserts the full history record for companyID
func (db *DB) Put(ctx context.Context, companyID string, history *types.CompanyVersionHistory) error {
	content, err := store.EncodeHistory(companyID, history)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO company_version_histories (company_id, company_name, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (company_id) DO UPDATE
		 SET company_name = EXCLUDED.company_name,
		     content = EXCLUDED.content,
		     updated_at = EXCLUDED.updated_at`,
		companyID, history.CompanyName, content, history.CreatedAt, history.UpdatedAt,
	)
	if err != nil {
		return &store.StorageError{Op: "put", Key: companyID, Message: "failed to upsert history", Cause: err}
	}
	return nil
}

// Get returns the history for companyID, or nil if none exists
func (db *DB) Get(ctx context.Context, companyID string) (*types.CompanyVersionHistory, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM company_version_histories WHERE company_id = $1`,
		companyID,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &store.StorageError{Op: "get", Key: companyID, Message: "failed to query history", Cause: err}
	}
	return store.DecodeHistory("get", companyID, content)
}

// Delete removes the history row and reports whether one existed
func (db *DB) Delete(ctx context.Context, companyID string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM company_version_histories WHERE company_id = $1`,
		companyID,
	)
	if err != nil {
		return false, &store.StorageError{Op: "delete", Key: companyID, Message: "failed to delete history", Cause: err}
	}
	return tag.RowsAffected() > 0, nil
}

// ListAll returns every readable history, most recently updated first
func (db *DB) ListAll(ctx context.Context) ([]*types.CompanyVersionHistory, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT company_id, content FROM company_version_histories ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, &store.StorageError{Op: "list", Message: "failed to query histories", Cause: err}
	}
	defer rows.Close()

	histories := make([]*types.CompanyVersionHistory, 0)
	for rows.Next() {
		var companyID string
		var content []byte
		if err := rows.Scan(&companyID, &content); err != nil {
			return nil, &store.StorageError{Op: "list", Message: "failed to scan history row", Cause: err}
		}
		history, err := store.DecodeHistory("list", companyID, content)
		if err != nil {
			db.log.Warn("skipping corrupt history record", "key", companyID, "error", err)
			continue
		}
		histories = append(histories, history)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate histories: %w", err)
	}
	return histories, nil
}
