package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/profile-sourcer/internal/types"
)

// DefaultHistoryLimit is used when ListSearches is called without a limit.
const DefaultHistoryLimit = 50

// RecordSearch stores a completed search and returns its ID.
func (db *DB) RecordSearch(ctx context.Context, rec *types.SearchRecord) (uuid.UUID, error) {
	queriesJSON, err := json.Marshal(rec.Queries)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal queries: %w", err)
	}
	results := rec.Results
	if results == nil {
		results = []types.Candidate{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal results: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO search_history (account_id, project_id, prompt, queries, result_count, results)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		rec.AccountID, rec.ProjectID, rec.Prompt, queriesJSON, rec.ResultCount, resultsJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record search: %w", err)
	}
	return id, nil
}

const historyColumns = `id, account_id, project_id, prompt, queries, result_count, results, created_at`

// ListSearches returns an account's most recent searches, newest first.
func (db *DB) ListSearches(ctx context.Context, accountID uuid.UUID, limit int) ([]types.SearchRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+historyColumns+`
		 FROM search_history WHERE account_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	defer rows.Close()

	records := []types.SearchRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate searches: %w", err)
	}
	return records, nil
}

// GetSearch returns one of the account's searches, or nil if it does not exist.
func (db *DB) GetSearch(ctx context.Context, accountID, id uuid.UUID) (*types.SearchRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+historyColumns+`
		 FROM search_history WHERE id = $1 AND account_id = $2`,
		id, accountID,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*types.SearchRecord, error) {
	var rec types.SearchRecord
	var queriesJSON, resultsJSON []byte
	if err := row.Scan(&rec.ID, &rec.AccountID, &rec.ProjectID, &rec.Prompt,
		&queriesJSON, &rec.ResultCount, &resultsJSON, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan search: %w", err)
	}
	if len(queriesJSON) > 0 {
		if err := json.Unmarshal(queriesJSON, &rec.Queries); err != nil {
			return nil, fmt.Errorf("failed to decode queries: %w", err)
		}
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &rec.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results: %w", err)
		}
	}
	return &rec, nil
}
