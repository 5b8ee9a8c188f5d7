// Package sqlite is an optional reference implementation of the
// storeport and cacheport interfaces backed by a real embedded
// database: a *sql.DB opened against modernc.org/sqlite, with schema
// managed by golang-migrate/migrate/v4 against an embedded migrations
// filesystem. It exists for integration tests and examples that want
// to exercise the processing chain against real persistence; none of
// the processing packages import it.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"hydrocore/internal/hbuffer"
	"hydrocore/internal/storeport"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed storeport.Port. The zero value is not usable;
// construct with Open.
type Store struct {
	db *sql.DB
}

var _ storeport.Port = (*Store)(nil)

// Open opens (creating if absent) a sqlite database at path and brings
// its schema up to date. Use a real file path for a usable WAL mode;
// ":memory:" works for tests but loses journal_mode's effect.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storeref/sqlite: open %s: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// applyPragmas sets the connection settings every handle needs: WAL
// for concurrent readers during a writer, a busy timeout instead of an
// immediate "database is locked" error, and NORMAL synchronous mode.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("storeref/sqlite: pragma %q: %w", p, err)
		}
	}
	return nil
}

// CloseStore releases the underlying database handle. Named distinctly
// from the Port interface's per-channel Close(id) below, since Go method
// sets can't overload on signature.
func (s *Store) CloseStore() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("storeref/sqlite: iofs source: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("storeref/sqlite: database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("storeref/sqlite: migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// m.Close() is never called here: the sqlite driver's Close() would
	// close s.db out from under the Store, which manages that lifetime
	// itself via CloseStore.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("storeref/sqlite: migrate up: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) { log.Printf("[storeref/sqlite] "+format, v...) }
func (l *migrateLogger) Verbose() bool                          { return false }

// Open implements storeport.Port: it upserts a channels row for
// (project, track, channel) and returns a ChannelID addressing it.
func (s *Store) Open(project, track, channel string) (storeport.ChannelID, error) {
	id := storeport.NewChannelID(project, track, channel)
	_, err := s.db.Exec(
		`INSERT INTO channels (project, track, channel) VALUES (?, ?, ?)
		 ON CONFLICT (project, track, channel) DO NOTHING`,
		project, track, channel)
	if err != nil {
		return storeport.ChannelID{}, fmt.Errorf("storeref/sqlite: open %s/%s/%s: %w", project, track, channel, err)
	}
	return id, nil
}

func (s *Store) rowID(id storeport.ChannelID) (int64, bool) {
	var rowID int64
	err := s.db.QueryRow(
		`SELECT id FROM channels WHERE project = ? AND track = ? AND channel = ?`,
		id.Project(), id.Track(), id.Channel()).Scan(&rowID)
	if err != nil {
		return 0, false
	}
	return rowID, true
}

// Close implements storeport.Port's per-channel close.
func (s *Store) Close(id storeport.ChannelID) error {
	rowID, ok := s.rowID(id)
	if !ok {
		return fmt.Errorf("storeref/sqlite: close: unknown channel %+v", id)
	}
	_, err := s.db.Exec(`UPDATE channels SET closed = 1, writable = 0 WHERE id = ?`, rowID)
	return err
}

func (s *Store) Range(id storeport.ChannelID) (first, last int64, ok bool) {
	rowID, found := s.rowID(id)
	if !found {
		return 0, 0, false
	}
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records WHERE channel_id = ?`, rowID).Scan(&count); err != nil || count == 0 {
		return 0, 0, false
	}
	return 0, count - 1, true
}

func (s *Store) Find(id storeport.ChannelID, t int64) (storeport.FindStatus, int64, int64, int64, int64) {
	rowID, found := s.rowID(id)
	if !found {
		return storeport.FindFail, 0, 0, 0, 0
	}

	first, last, ok := s.Range(id)
	if !ok {
		return storeport.FindFail, 0, 0, 0, 0
	}

	var firstT, lastT int64
	s.db.QueryRow(`SELECT t FROM records WHERE channel_id = ? AND idx = ?`, rowID, first).Scan(&firstT)
	s.db.QueryRow(`SELECT t FROM records WHERE channel_id = ? AND idx = ?`, rowID, last).Scan(&lastT)

	if t < firstT {
		return storeport.FindLeft, first, first, firstT, firstT
	}
	if t > lastT {
		return storeport.FindRight, last, last, lastT, lastT
	}

	var exactIdx int64
	var exactT int64
	err := s.db.QueryRow(`SELECT idx, t FROM records WHERE channel_id = ? AND t = ?`, rowID, t).Scan(&exactIdx, &exactT)
	if err == nil {
		return storeport.FindExact, exactIdx, exactIdx, exactT, exactT
	}

	var lidx, ltime int64
	if err := s.db.QueryRow(
		`SELECT idx, t FROM records WHERE channel_id = ? AND t < ? ORDER BY t DESC LIMIT 1`, rowID, t,
	).Scan(&lidx, &ltime); err != nil {
		return storeport.FindFail, 0, 0, 0, 0
	}
	var ridx, rtime int64
	if err := s.db.QueryRow(
		`SELECT idx, t FROM records WHERE channel_id = ? AND t > ? ORDER BY t ASC LIMIT 1`, rowID, t,
	).Scan(&ridx, &rtime); err != nil {
		return storeport.FindFail, 0, 0, 0, 0
	}
	return storeport.FindWithin, lidx, ridx, ltime, rtime
}

func (s *Store) Read(id storeport.ChannelID, index int64, buf *hbuffer.Buffer) (int64, bool) {
	rowID, found := s.rowID(id)
	if !found {
		return 0, false
	}
	var t int64
	var data []byte
	if err := s.db.QueryRow(`SELECT t, data FROM records WHERE channel_id = ? AND idx = ?`, rowID, index).Scan(&t, &data); err != nil {
		return 0, false
	}
	buf.SetBytes(data)
	return t, true
}

func (s *Store) Append(id storeport.ChannelID, t int64, data []byte) (int64, bool) {
	rowID, found := s.rowID(id)
	if !found {
		return 0, false
	}

	var writable, closed bool
	if err := s.db.QueryRow(`SELECT writable, closed FROM channels WHERE id = ?`, rowID).Scan(&writable, &closed); err != nil {
		return 0, false
	}
	if !writable || closed {
		return 0, false
	}

	var nextIdx int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records WHERE channel_id = ?`, rowID).Scan(&nextIdx); err != nil {
		return 0, false
	}

	if _, err := s.db.Exec(`INSERT INTO records (channel_id, idx, t, data) VALUES (?, ?, ?, ?)`, rowID, nextIdx, t, data); err != nil {
		return 0, false
	}
	if _, err := s.db.Exec(`UPDATE channels SET mod_count = mod_count + 1 WHERE id = ?`, rowID); err != nil {
		return 0, false
	}
	return nextIdx, true
}

func (s *Store) IsWritable(id storeport.ChannelID) bool {
	rowID, found := s.rowID(id)
	if !found {
		return false
	}
	var writable, closed bool
	if err := s.db.QueryRow(`SELECT writable, closed FROM channels WHERE id = ?`, rowID).Scan(&writable, &closed); err != nil {
		return false
	}
	return writable && !closed
}

func (s *Store) ModCount(id storeport.ChannelID) uint32 {
	rowID, found := s.rowID(id)
	if !found {
		return 0
	}
	var count uint32
	s.db.QueryRow(`SELECT mod_count FROM channels WHERE id = ?`, rowID).Scan(&count)
	return count
}

// SetWritable toggles a channel's writability, mirroring MemPort's test
// helper of the same name so sqlite-backed integration tests can
// simulate a store transitioning read-only.
func (s *Store) SetWritable(id storeport.ChannelID, writable bool) {
	if rowID, ok := s.rowID(id); ok {
		s.db.Exec(`UPDATE channels SET writable = ? WHERE id = ?`, writable, rowID)
	}
}
