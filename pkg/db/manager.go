package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/complexportal/pkg/graph"
	"github.com/dtnitsch/complexportal/pkg/parser"
)

// Field names read from Complex Portal rows.
const (
	FieldAccession = "Complex ac"
	FieldName      = "Recommended name"
	FieldTaxonomy  = "Taxonomy identifier"
)

// Manager is the persistence capability used by the db commands. Any
// backend able to report, summarize and load complexes satisfies it.
type Manager interface {
	IsPopulated() (bool, error)
	Summarize() (*Summary, error)
	Populate(records *parser.Records, version string) (*LoadResult, error)
}

var _ Manager = (*DB)(nil)

// Summary describes the currently loaded dataset.
type Summary struct {
	Version      string         `yaml:"version" json:"version"`
	LoadedAt     time.Time      `yaml:"loaded_at" json:"loaded_at"`
	Complexes    int            `yaml:"complexes" json:"complexes"`
	Participants int            `yaml:"participants" json:"participants"`
	ByNamespace  map[string]int `yaml:"participants_by_namespace" json:"participants_by_namespace"`
	ByTaxonomy   map[string]int `yaml:"complexes_by_taxonomy" json:"complexes_by_taxonomy"`
	Fetches      int            `yaml:"fetches" json:"fetches"`
}

// LoadResult reports what one Populate call stored.
type LoadResult struct {
	LoadID       int64
	Complexes    int
	Participants int
	Skipped      int
}

// IsPopulated reports whether any complexes are stored.
func (db *DB) IsPopulated() (bool, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM complexes").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count complexes: %w", err)
	}
	return count > 0, nil
}

// Populate replaces the stored complexes with the rows from records in a
// single transaction. A failure leaves the previous load intact.
func (db *DB) Populate(records *parser.Records, version string) (*LoadResult, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after Commit
	}()

	if _, err := tx.Exec("DELETE FROM complexes"); err != nil {
		return nil, fmt.Errorf("failed to clear complexes: %w", err)
	}

	res, err := tx.Exec("INSERT INTO loads (version) VALUES (?)", version)
	if err != nil {
		return nil, fmt.Errorf("failed to insert load: %w", err)
	}
	loadID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get load ID: %w", err)
	}

	complexStmt, err := tx.Prepare(`
		INSERT INTO complexes (accession, name, taxonomy_id, load_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(accession) DO UPDATE SET name = excluded.name, taxonomy_id = excluded.taxonomy_id
		RETURNING complex_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare complex insert: %w", err)
	}
	defer complexStmt.Close()

	participantStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO complex_participants (complex_id, namespace, identifier, function)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare participant insert: %w", err)
	}
	defer participantStmt.Close()

	result := &LoadResult{LoadID: loadID}
	for records.Next() {
		rec := records.Record()
		accession := strings.TrimSpace(rec.Get(FieldAccession))
		if accession == "" {
			continue
		}

		var complexID int64
		err := complexStmt.QueryRow(accession, rec.Get(FieldName), rec.Get(FieldTaxonomy), loadID).Scan(&complexID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert complex %s: %w", accession, err)
		}
		result.Complexes++

		for _, p := range graph.ParseParticipants(rec.Get(graph.ParticipantsField)) {
			res, err := participantStmt.Exec(complexID, p.Namespace, p.Name, p.Function)
			if err != nil {
				return nil, fmt.Errorf("failed to insert participant %s of %s: %w", p.Name, accession, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				result.Participants++
			}
		}
	}
	if err := records.Err(); err != nil {
		return nil, err
	}
	result.Skipped = records.Skipped()

	_, err = tx.Exec(`
		UPDATE loads SET complex_count = ?, participant_count = ?, skipped_rows = ?
		WHERE load_id = ?
	`, result.Complexes, result.Participants, result.Skipped, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to update load stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}
	return result, nil
}

// Summarize returns counts for the live dataset. On an empty database the
// summary has zero counts and no version.
func (db *DB) Summarize() (*Summary, error) {
	s := &Summary{
		ByNamespace: make(map[string]int),
		ByTaxonomy:  make(map[string]int),
	}

	err := db.QueryRow(`
		SELECT version, loaded_at FROM loads ORDER BY load_id DESC LIMIT 1
	`).Scan(&s.Version, &s.LoadedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get latest load: %w", err)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM complexes").Scan(&s.Complexes); err != nil {
		return nil, fmt.Errorf("failed to count complexes: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM complex_participants").Scan(&s.Participants); err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM fetches").Scan(&s.Fetches); err != nil {
		return nil, fmt.Errorf("failed to count fetches: %w", err)
	}

	if err := db.countInto(s.ByNamespace, `
		SELECT namespace, COUNT(*) FROM complex_participants GROUP BY namespace
	`); err != nil {
		return nil, fmt.Errorf("failed to count participants by namespace: %w", err)
	}
	if err := db.countInto(s.ByTaxonomy, `
		SELECT COALESCE(taxonomy_id, ''), COUNT(*) FROM complexes GROUP BY taxonomy_id
	`); err != nil {
		return nil, fmt.Errorf("failed to count complexes by taxonomy: %w", err)
	}

	return s, nil
}

func (db *DB) countInto(dst map[string]int, query string) error {
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dst[key] = count
	}
	return rows.Err()
}

// GetComplexParticipants returns the participants of one complex as
// namespace:identifier strings.
func (db *DB) GetComplexParticipants(accession string) ([]string, error) {
	rows, err := db.Query(`
		SELECT p.namespace, p.identifier
		FROM complex_participants p
		JOIN complexes c ON c.complex_id = p.complex_id
		WHERE c.accession = ?
		ORDER BY p.participant_id
	`, accession)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var ns, id string
		if err := rows.Scan(&ns, &id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, ns+":"+id)
	}
	return participants, rows.Err()
}
