package db

import (
	"database/sql"
	"fmt"
	"time"
)

// FetchRecord is one download attempt of the remote table.
type FetchRecord struct {
	FetchID      int64
	URI          string
	FetchedAt    time.Time
	Success      bool
	ErrorType    string
	ErrorMessage string
	Digest       string
	SizeBytes    int64
}

// RecordFetch stores a download attempt.
func (db *DB) RecordFetch(rec FetchRecord) error {
	_, err := db.Exec(`
		INSERT INTO fetches (uri, success, error_type, error_message, digest, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.URI, rec.Success, nullString(rec.ErrorType), nullString(rec.ErrorMessage), nullString(rec.Digest), rec.SizeBytes)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// ListFetches returns the most recent fetches first. limit <= 0 means all.
func (db *DB) ListFetches(limit int) ([]FetchRecord, error) {
	query := `
		SELECT fetch_id, uri, fetched_at, success, error_type, error_message, digest, size_bytes
		FROM fetches
		ORDER BY fetch_id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	defer rows.Close()

	var fetches []FetchRecord
	for rows.Next() {
		var rec FetchRecord
		var errorType, errorMessage, digest sql.NullString
		var size sql.NullInt64
		err := rows.Scan(&rec.FetchID, &rec.URI, &rec.FetchedAt, &rec.Success, &errorType, &errorMessage, &digest, &size)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		rec.ErrorType = errorType.String
		rec.ErrorMessage = errorMessage.String
		rec.Digest = digest.String
		rec.SizeBytes = size.Int64
		fetches = append(fetches, rec)
	}
	return fetches, rows.Err()
}

// LastSuccessfulFetch returns the newest successful fetch, or nil.
func (db *DB) LastSuccessfulFetch() (*FetchRecord, error) {
	fetches, err := db.ListFetches(0)
	if err != nil {
		return nil, err
	}
	for i := range fetches {
		if fetches[i].Success {
			return &fetches[i], nil
		}
	}
	return nil, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
