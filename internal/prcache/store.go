// Package prcache provides SQLite-backed caching of PR metadata
// fetched from the hosting API, plus a log of collection runs.
package prcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

// ErrNotCached is returned when a PR is absent from the cache.
var ErrNotCached = errors.New("pr not cached")

// Store provides SQLite-backed PR persistence.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at the given path.
// ":memory:" yields an ephemeral store for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPR inserts or updates a PR and its file list.
func (s *Store) UpsertPR(pr domain.PullRequest) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO prs (number, title, author, merged_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			merged_at = excluded.merged_at,
			updated_at = excluded.updated_at
	`, pr.Number, pr.Title, pr.Author, pr.MergedAt, pr.UpdatedAt)
	if err != nil {
		return err
	}

	if pr.Files != nil {
		if _, err := tx.Exec(`DELETE FROM pr_files WHERE pr_number = ?`, pr.Number); err != nil {
			return err
		}
		for i, f := range pr.Files {
			if _, err := tx.Exec(`INSERT INTO pr_files (pr_number, position, path) VALUES (?, ?, ?)`,
				pr.Number, i, f); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetPR retrieves a cached PR with its files. Returns ErrNotCached
// when absent.
func (s *Store) GetPR(number int) (domain.PullRequest, error) {
	row := s.db.QueryRow(`
		SELECT number, title, author, merged_at, updated_at
		FROM prs WHERE number = ?
	`, number)

	var pr domain.PullRequest
	var author, mergedAt, updatedAt sql.NullString
	err := row.Scan(&pr.Number, &pr.Title, &author, &mergedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PullRequest{}, ErrNotCached
	}
	if err != nil {
		return domain.PullRequest{}, err
	}
	pr.Author = author.String
	pr.MergedAt = mergedAt.String
	pr.UpdatedAt = updatedAt.String

	rows, err := s.db.Query(`SELECT path FROM pr_files WHERE pr_number = ? ORDER BY position`, number)
	if err != nil {
		return domain.PullRequest{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return domain.PullRequest{}, err
		}
		pr.Files = append(pr.Files, path)
	}
	return pr, rows.Err()
}

// CachedNumbers returns all cached PR numbers in ascending order.
func (s *Store) CachedNumbers() ([]int, error) {
	rows, err := s.db.Query(`SELECT number FROM prs ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// NumbersWithoutFiles returns cached PRs that have no file list yet.
func (s *Store) NumbersWithoutFiles() ([]int, error) {
	rows, err := s.db.Query(`
		SELECT number FROM prs
		WHERE number NOT IN (SELECT DISTINCT pr_number FROM pr_files)
		ORDER BY number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// IsStale reports whether the cached copy of a PR is older than the
// given updated_at timestamp. An uncached PR is stale.
func (s *Store) IsStale(number int, currentUpdatedAt string) (bool, error) {
	pr, err := s.GetPR(number)
	if errors.Is(err, ErrNotCached) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return pr.Stale(currentUpdatedAt), nil
}

// rangeKey canonicalizes a tag range into one cache key.
func rangeKey(startRef, endRef string) string {
	return startRef + ".." + endRef
}

// SaveTagRange memoizes the PR numbers found for a tag range.
func (s *Store) SaveTagRange(startRef, endRef string, numbers []int) error {
	encoded, err := json.Marshal(numbers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO tag_ranges (range_key, pr_numbers)
		VALUES (?, ?)
		ON CONFLICT(range_key) DO UPDATE SET
			pr_numbers = excluded.pr_numbers,
			fetched_at = CURRENT_TIMESTAMP
	`, rangeKey(startRef, endRef), string(encoded))
	return err
}

// TagRange returns the memoized PR numbers for a tag range, or
// (nil, false) when the range was never fetched.
func (s *Store) TagRange(startRef, endRef string) ([]int, bool, error) {
	row := s.db.QueryRow(`SELECT pr_numbers FROM tag_ranges WHERE range_key = ?`, rangeKey(startRef, endRef))

	var encoded string
	err := row.Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var numbers []int
	if err := json.Unmarshal([]byte(encoded), &numbers); err != nil {
		return nil, false, err
	}
	return numbers, true, nil
}

// RecordRun logs one collection run, assigning it a fresh id.
func (s *Store) RecordRun(run domain.RunSummary) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, start_ref, end_ref, started_at, groups, compiler_groups, parse_warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, run.StartRef, run.EndRef, run.StartedAt, run.Groups, run.CompilerGroups, run.ParseWarnings)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Runs returns recorded run summaries, newest first.
func (s *Store) Runs(limit int) ([]domain.RunSummary, error) {
	query := `SELECT id, start_ref, end_ref, started_at, groups, compiler_groups, parse_warnings FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var r domain.RunSummary
		if err := rows.Scan(&r.ID, &r.StartRef, &r.EndRef, &r.StartedAt, &r.Groups, &r.CompilerGroups, &r.ParseWarnings); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// String summarizes the cache for operator display.
func (s *Store) String() string {
	numbers, err := s.CachedNumbers()
	if err != nil {
		return "prcache (unreadable)"
	}
	return fmt.Sprintf("prcache (%d PRs)", len(numbers))
}
