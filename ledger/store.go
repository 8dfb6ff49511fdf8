// Package ledger provides the persistent, sqlite-backed mapping store and
// the snapshot boundary around Cursor invocations: callers Begin before
// driving a Cursor, then Commit on success or Discard on any halt.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"

	"github.com/strata-lang/strata/vm"
	"github.com/strata-lang/strata/wire"
)

var log = commonlog.GetLogger("strata.ledger")

// Store is a vm.MappingStore backed by a sqlite database. Writes issued
// between Begin and Commit are staged in a database transaction; Discard
// rolls them back, which is the all-or-nothing failure model the engine
// assumes.
type Store struct {
	db *sql.DB
	tx *sql.Tx
	mu sync.Mutex
}

// Open opens (creating if needed) a ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS mappings (
		program TEXT NOT NULL,
		mapping TEXT NOT NULL,
		key     BLOB NOT NULL,
		value   BLOB NOT NULL,
		PRIMARY KEY (program, mapping, key)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating mappings table: %w", err)
	}

	log.Debugf("opened ledger at %s", path)
	return &Store{db: db}, nil
}

// Close closes the database, rolling back any open snapshot.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Begin opens a snapshot. All mapping writes until Commit or Discard are
// staged and invisible to other connections.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return errors.New("snapshot already open")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit makes the staged writes durable.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return errors.New("no open snapshot")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Discard rolls back the staged writes, restoring pre-invocation state.
func (s *Store) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return errors.New("no open snapshot")
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("discarding snapshot: %w", err)
	}
	log.Debug("snapshot discarded")
	return nil
}

// querier routes reads and writes through the open snapshot when present.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// ---------------------------------------------------------------------------
// vm.MappingStore
// ---------------------------------------------------------------------------

// Get returns the value stored under key, or vm.ErrKeyNotFound.
func (s *Store) Get(program, mapping string, key vm.Value) (vm.Value, error) {
	kb, err := vm.KeyBytes(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw []byte
	err = s.q().QueryRow(
		"SELECT value FROM mappings WHERE program = ? AND mapping = ? AND key = ?",
		program, mapping, kb,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vm.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mapping %s/%s: %w", program, mapping, err)
	}
	return wire.Unmarshal(raw)
}

// Contains reports whether key is present.
func (s *Store) Contains(program, mapping string, key vm.Value) (bool, error) {
	kb, err := vm.KeyBytes(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err = s.q().QueryRow(
		"SELECT 1 FROM mappings WHERE program = ? AND mapping = ? AND key = ?",
		program, mapping, kb,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying mapping %s/%s: %w", program, mapping, err)
	}
	return true, nil
}

// Set writes value under key, replacing any previous entry.
func (s *Store) Set(program, mapping string, key, value vm.Value) error {
	kb, err := vm.KeyBytes(key)
	if err != nil {
		return err
	}
	vb, err := wire.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.q().Exec(
		"INSERT OR REPLACE INTO mappings (program, mapping, key, value) VALUES (?, ?, ?, ?)",
		program, mapping, kb, vb,
	)
	if err != nil {
		return fmt.Errorf("writing mapping %s/%s: %w", program, mapping, err)
	}
	return nil
}

// Remove deletes the entry under key. Removing an absent key is not an
// error.
func (s *Store) Remove(program, mapping string, key vm.Value) error {
	kb, err := vm.KeyBytes(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.q().Exec(
		"DELETE FROM mappings WHERE program = ? AND mapping = ? AND key = ?",
		program, mapping, kb,
	)
	if err != nil {
		return fmt.Errorf("deleting from mapping %s/%s: %w", program, mapping, err)
	}
	return nil
}

// GetOrInit returns the value under key, storing and returning fallback
// when the key is absent.
func (s *Store) GetOrInit(program, mapping string, key, fallback vm.Value) (vm.Value, error) {
	v, err := s.Get(program, mapping, key)
	if errors.Is(err, vm.ErrKeyNotFound) {
		if err := s.Set(program, mapping, key, fallback); err != nil {
			return nil, err
		}
		return fallback, nil
	}
	return v, err
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Mappings lists the distinct mapping names stored for a program.
func (s *Store) Mappings(program string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.q().Query(
		"SELECT DISTINCT mapping FROM mappings WHERE program = ? ORDER BY mapping",
		program,
	)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning mapping name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Entry is one inspected mapping row.
type Entry struct {
	KeyBytes []byte
	Value    vm.Value
}

// Entries returns every row of one mapping.
func (s *Store) Entries(program, mapping string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.q().Query(
		"SELECT key, value FROM mappings WHERE program = ? AND mapping = ? ORDER BY key",
		program, mapping,
	)
	if err != nil {
		return nil, fmt.Errorf("listing entries of %s/%s: %w", program, mapping, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var kb, vb []byte
		if err := rows.Scan(&kb, &vb); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		v, err := wire.Unmarshal(vb)
		if err != nil {
			log.Errorf("undecodable value in %s/%s: %v", program, mapping, err)
			continue
		}
		out = append(out, Entry{KeyBytes: kb, Value: v})
	}
	return out, rows.Err()
}
