package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	serrors "github.com/searchsync/searchsync/internal/errors"
)

// SQLiteStore implements Store on a single SQLite database. Records are
// stored one row per (entity, primary key) with the field map as JSON.
// WAL mode with a single-writer pool keeps concurrent readers cheap.
type SQLiteStore struct {
	mu        sync.Mutex
	db        *sql.DB
	keyFields map[string]string // entity name -> primary key field
	hooks     []Hook
	closed    bool
}

// Verify interface implementation at compile time.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the record database. keyFields maps
// each entity name to its primary key field; Apply rejects changes for
// entities outside this map. An empty path opens an in-memory database
// for testing.
func NewSQLiteStore(path string, keyFields map[string]string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, serrors.New(serrors.ErrCodeStoreUnavailable,
				fmt.Sprintf("cannot create store directory %s", filepath.Dir(path)), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreUnavailable, "cannot open record database", err)
	}

	// Single writer prevents lock contention under the modernc driver.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, serrors.New(serrors.ErrCodeStoreUnavailable, "failed to set pragma", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS records (
		entity TEXT NOT NULL,
		pk     TEXT NOT NULL,
		body   TEXT NOT NULL,
		PRIMARY KEY (entity, pk)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, serrors.New(serrors.ErrCodeStoreUnavailable, "failed to initialize schema", err)
	}

	fields := make(map[string]string, len(keyFields))
	for entity, pk := range keyFields {
		fields[entity] = pk
	}

	return &SQLiteStore{db: db, keyFields: fields}, nil
}

// CommitHook registers a post-commit hook.
func (s *SQLiteStore) CommitHook(hook Hook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, hook)
	s.mu.Unlock()
}

// Apply commits all changes in one transaction and then invokes hooks.
// The transaction is the durability boundary: by the time a hook runs,
// the change set is committed and visible, so a hook failure reports a
// post-commit consistency problem, never a rolled-back write.
func (s *SQLiteStore) Apply(ctx context.Context, changes ChangeSet) error {
	if len(changes) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return serrors.New(serrors.ErrCodeStoreUnavailable, "store is closed", nil)
	}
	hooks := make([]Hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	// Validate before opening the transaction so a malformed change
	// cannot leave a partial commit.
	type row struct {
		op     Op
		entity string
		key    string
		body   []byte
	}
	rows := make([]row, 0, len(changes))
	for _, change := range changes {
		pkField, ok := s.keyFields[change.Entity]
		if !ok {
			return serrors.NotRegistered(change.Entity)
		}
		key, ok := change.Record.Key(pkField)
		if !ok {
			return serrors.New(serrors.ErrCodeInvalidRecord,
				fmt.Sprintf("record of entity %q has no primary key field %q", change.Entity, pkField), nil)
		}
		r := row{op: change.Op, entity: change.Entity, key: key}
		if change.Op != OpDelete {
			body, err := json.Marshal(change.Record)
			if err != nil {
				return serrors.New(serrors.ErrCodeInvalidRecord,
					fmt.Sprintf("record %s of entity %q is not serializable", key, change.Entity), err)
			}
			r.body = body
		}
		rows = append(rows, r)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return serrors.New(serrors.ErrCodeStoreUnavailable, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		switch r.op {
		case OpDelete:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM records WHERE entity = ? AND pk = ?`, r.entity, r.key); err != nil {
				return serrors.New(serrors.ErrCodeStoreUnavailable,
					fmt.Sprintf("failed to delete record %s", r.key), err)
			}
		default:
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO records (entity, pk, body) VALUES (?, ?, ?)`,
				r.entity, r.key, r.body); err != nil {
				return serrors.New(serrors.ErrCodeStoreUnavailable,
					fmt.Sprintf("failed to write record %s", r.key), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return serrors.New(serrors.ErrCodeStoreUnavailable, "commit failed", err)
	}

	// Post-commit hooks. The first failure propagates to the caller; the
	// committed transaction stands either way.
	for _, hook := range hooks {
		if err := hook(ctx, changes); err != nil {
			return err
		}
	}
	return nil
}

// Get resolves one record by primary key.
func (s *SQLiteStore) Get(ctx context.Context, entityName, key string) (Record, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE entity = ? AND pk = ?`, entityName, key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, serrors.New(serrors.ErrCodeStoreUnavailable,
			fmt.Sprintf("failed to read record %s", key), err)
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, false, serrors.New(serrors.ErrCodeInvalidRecord,
			fmt.Sprintf("stored record %s of entity %q is corrupt", key, entityName), err)
	}
	return rec, true, nil
}

// All returns every record of an entity in primary-key order.
func (s *SQLiteStore) All(ctx context.Context, entityName string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM records WHERE entity = ? ORDER BY pk`, entityName)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreUnavailable,
			fmt.Sprintf("failed to list records of entity %q", entityName), err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, serrors.New(serrors.ErrCodeStoreUnavailable, "failed to scan record", err)
		}
		var rec Record
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, serrors.New(serrors.ErrCodeInvalidRecord,
				fmt.Sprintf("stored record of entity %q is corrupt", entityName), err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of records of an entity.
func (s *SQLiteStore) Count(ctx context.Context, entityName string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE entity = ?`, entityName).Scan(&count)
	if err != nil {
		return 0, serrors.New(serrors.ErrCodeStoreUnavailable,
			fmt.Sprintf("failed to count records of entity %q", entityName), err)
	}
	return count, nil
}

// Close closes the database. Idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
