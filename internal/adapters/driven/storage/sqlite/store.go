package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/medterm/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TermStore = (*Store)(nil)

// DatabaseFile is the file name of the term database inside the data directory.
const DatabaseFile = "medterm.db"

// Store is the SQLite implementation of driven.TermStore.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serialises writers so check-then-write sequences are atomic.
	writeMu sync.Mutex

	now func() time.Time
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.medterm/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".medterm", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return Open(filepath.Join(dataDir, DatabaseFile))
}

// Open opens (creating if needed) the database at an explicit file path.
func Open(dbPath string) (*Store, error) {
	// WAL lets lookups read while a mutation is in flight.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_terms.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// Get returns the entry for an exact, case-insensitive keyword.
func (s *Store) Get(ctx context.Context, keyword string) (*domain.LocalEntry, error) {
	key := domain.NormalizeKeyword(keyword)
	if key == "" {
		return nil, domain.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT keyword, definition, origin, kind, created_at, updated_at
		FROM terms WHERE key = ?
	`, key)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getting term: %w", domain.ErrStoreIO, err)
	}
	return entry, nil
}

// Put inserts a custom entry or overwrites an existing custom one.
// A seeded entry under the same key rejects the write with domain.ErrAlreadyExists.
func (s *Store) Put(ctx context.Context, keyword, definition string, kind domain.EntryKind) (*domain.LocalEntry, error) {
	keyword = strings.TrimSpace(keyword)
	definition = strings.TrimSpace(definition)
	key := domain.NormalizeKeyword(keyword)
	if key == "" || definition == "" {
		return nil, domain.ErrInvalidInput
	}
	if kind == "" {
		kind = domain.KindAbbreviation
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %w", domain.ErrStoreIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	var origin string
	var createdAt int64
	err = tx.QueryRowContext(ctx, "SELECT origin, created_at FROM terms WHERE key = ?", key).Scan(&origin, &createdAt)

	now := s.now()
	entry := &domain.LocalEntry{
		Keyword:    keyword,
		Definition: definition,
		Origin:     domain.OriginCustom,
		Kind:       kind,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO terms (key, keyword, definition, origin, kind, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, key, keyword, definition, domain.OriginCustom, kind, now.UnixNano(), now.UnixNano())
	case err != nil:
		return nil, fmt.Errorf("%w: reading term: %w", domain.ErrStoreIO, err)
	case domain.EntryOrigin(origin) != domain.OriginCustom:
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, keyword)
	default:
		entry.CreatedAt = time.Unix(0, createdAt).UTC()
		_, err = tx.ExecContext(ctx, `
			UPDATE terms SET keyword = ?, definition = ?, kind = ?, updated_at = ?
			WHERE key = ?
		`, keyword, definition, kind, now.UnixNano(), key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: writing term: %w", domain.ErrStoreIO, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing term: %w", domain.ErrStoreIO, err)
	}
	return entry, nil
}

// Delete removes a custom entry.
func (s *Store) Delete(ctx context.Context, keyword string) error {
	key := domain.NormalizeKeyword(keyword)
	if key == "" {
		return domain.ErrNotFound
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStoreIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	var origin string
	err = tx.QueryRowContext(ctx, "SELECT origin FROM terms WHERE key = ?", key).Scan(&origin)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: reading term: %w", domain.ErrStoreIO, err)
	}
	if (domain.LocalEntry{Origin: domain.EntryOrigin(origin)}).Protected() {
		return fmt.Errorf("%w: %s", domain.ErrProtected, strings.TrimSpace(keyword))
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM terms WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: deleting term: %w", domain.ErrStoreIO, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing delete: %w", domain.ErrStoreIO, err)
	}
	return nil
}

// Seed bulk-loads seeded entries in one transaction.
// Keys already present (seeded or custom) are left untouched.
func (s *Store) Seed(ctx context.Context, records []domain.SeedRecord) (int, error) {
	merged := domain.MergeSeedRecords(records)
	if len(merged) == 0 {
		return 0, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %w", domain.ErrStoreIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO terms (key, keyword, definition, origin, kind, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("%w: preparing seed: %w", domain.ErrStoreIO, err)
	}
	defer stmt.Close()

	now := s.now().UnixNano()
	inserted := 0
	for _, rec := range merged {
		res, err := stmt.ExecContext(ctx, domain.NormalizeKeyword(rec.Keyword), rec.Keyword, rec.Definition,
			domain.OriginSeeded, domain.KindAbbreviation, now, now)
		if err != nil {
			return 0, fmt.Errorf("%w: seeding %s: %w", domain.ErrStoreIO, rec.Keyword, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%w: seeding %s: %w", domain.ErrStoreIO, rec.Keyword, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing seed: %w", domain.ErrStoreIO, err)
	}
	return inserted, nil
}

// Search returns custom entries whose key contains the fragment, ordered by key.
func (s *Store) Search(ctx context.Context, fragment string, limit int) ([]domain.LocalEntry, error) {
	key := domain.NormalizeKeyword(fragment)
	if key == "" {
		return nil, nil
	}

	query := `
		SELECT keyword, definition, origin, kind, created_at, updated_at
		FROM terms WHERE origin = ? AND key LIKE ? ESCAPE '\' ORDER BY key
	`
	args := []any{string(domain.OriginCustom), "%" + escapeLike(key) + "%"}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: searching terms: %w", domain.ErrStoreIO, err)
	}
	defer rows.Close()

	var entries []domain.LocalEntry //nolint:prealloc
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning term: %w", domain.ErrStoreIO, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating terms: %w", domain.ErrStoreIO, err)
	}
	return entries, nil
}

// Stats returns seeded and custom entry counts.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN origin = 'seeded' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN origin = 'custom' THEN 1 ELSE 0 END), 0)
		FROM terms
	`)
	if err := row.Scan(&stats.Seeded, &stats.Custom); err != nil {
		return stats, fmt.Errorf("%w: counting terms: %w", domain.ErrStoreIO, err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.LocalEntry, error) {
	var (
		entry              domain.LocalEntry
		origin, kind       string
		createdAt, updated int64
	)
	if err := row.Scan(&entry.Keyword, &entry.Definition, &origin, &kind, &createdAt, &updated); err != nil {
		return nil, err
	}
	entry.Origin = domain.EntryOrigin(origin)
	entry.Kind = domain.EntryKind(kind)
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	entry.UpdatedAt = time.Unix(0, updated).UTC()
	return &entry, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied fragment.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
