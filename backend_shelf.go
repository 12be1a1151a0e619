package funcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// shelfBackend multiplexes many keys inside one durable store per namespace.
// The default engine is a per-namespace SQLite file held open for the process
// lifetime; "mysql" and "pgx" engines map the namespace to a table instead.
// Every Store commits synchronously, so a crash immediately after return
// cannot lose the write. Concurrent writers to the same namespace must be
// externally serialized; the backend adds no locking beyond the database's
// own guarantees.
type shelfBackend struct {
	db         *sql.DB
	table      string
	driverName string

	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
	purgeStmt  *sql.Stmt
}

func openShelfBackend(namespace string, cfg Config) (Backend, error) {
	var (
		db    *sql.DB
		table string
		err   error
	)
	switch cfg.SQLDriverName {
	case "sqlite":
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, storageErr("open shelf dir", err)
		}
		path := filepath.Join(cfg.Dir, sanitizeNamespace(namespace)+".cache")
		db, err = sql.Open("sqlite", path)
		table = cfg.SQLTable
	default:
		db, err = sql.Open(cfg.SQLDriverName, cfg.SQLDSN)
		table = cfg.SQLTable + "_" + sqlIdent(namespace)
	}
	if err != nil {
		return nil, storageErr("open shelf", err)
	}
	s := &shelfBackend{db: db, table: table, driverName: cfg.SQLDriverName}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *shelfBackend) init() error {
	if err := s.db.Ping(); err != nil {
		return storageErr("ping shelf", err)
	}
	if s.driverName == "sqlite" {
		// WAL keeps readers off the writer's back; synchronous=FULL makes
		// each committed Store survive power loss.
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return storageErr("set journal mode", err)
		}
		if _, err := s.db.Exec("PRAGMA synchronous=FULL"); err != nil {
			return storageErr("set synchronous mode", err)
		}
	}
	if err := s.ensureSchema(); err != nil {
		return storageErr("ensure shelf schema", err)
	}
	if err := s.prepareStatements(); err != nil {
		return storageErr("prepare shelf statements", err)
	}
	return nil
}

func (s *shelfBackend) ensureSchema() error {
	var stmt string
	switch s.driverName {
	case "postgres", "pgx":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k CHAR(64) PRIMARY KEY,
			v BYTEA NOT NULL,
			wa BIGINT NOT NULL
		);`, s.table)
	case "mysql":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k CHAR(64) PRIMARY KEY,
			v LONGBLOB NOT NULL,
			wa BIGINT NOT NULL
		) ENGINE=InnoDB;`, s.table)
	default: // sqlite
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BLOB NOT NULL,
			wa INTEGER NOT NULL
		);`, s.table)
	}
	_, err := s.db.Exec(stmt)
	return err
}

func (s *shelfBackend) Driver() Driver { return DriverShelf }

func (s *shelfBackend) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	var (
		v  []byte
		wa int64
	)
	err := s.getStmt.QueryRowContext(ctx, shelfKey(key)).Scan(&v, &wa)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, storageErr("lookup entry", err)
	}
	return Entry{WrittenAt: time.Unix(0, wa), Payload: cloneBytes(v)}, true, nil
}

func (s *shelfBackend) Store(ctx context.Context, key Key, entry Entry) error {
	wa := entry.WrittenAt.UnixNano()
	_, err := s.upsertStmt.ExecContext(ctx, shelfKey(key), entry.Payload, wa, entry.Payload, wa)
	if err != nil {
		return storageErr("store entry", err)
	}
	return nil
}

func (s *shelfBackend) Delete(ctx context.Context, key Key) error {
	if _, err := s.deleteStmt.ExecContext(ctx, shelfKey(key)); err != nil {
		return storageErr("delete entry", err)
	}
	return nil
}

func (s *shelfBackend) Purge(ctx context.Context) error {
	if _, err := s.purgeStmt.ExecContext(ctx); err != nil {
		return storageErr("purge namespace", err)
	}
	return nil
}

func (s *shelfBackend) Close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.upsertStmt, s.deleteStmt, s.purgeStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

// shelfKey is the hex digest used as the row key. A digest keeps arbitrary
// binary keys within every engine's primary-key limits; collisions are
// negligible at 256 bits.
func shelfKey(key Key) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (s *shelfBackend) prepareStatements() error {
	var err error
	if s.getStmt, err = s.db.Prepare(fmt.Sprintf("SELECT v, wa FROM %s WHERE k = %s", s.table, s.ph(1))); err != nil {
		return err
	}
	if s.upsertStmt, err = s.db.Prepare(s.upsertSQL()); err != nil {
		return err
	}
	if s.deleteStmt, err = s.db.Prepare(fmt.Sprintf("DELETE FROM %s WHERE k = %s", s.table, s.ph(1))); err != nil {
		return err
	}
	if s.purgeStmt, err = s.db.Prepare(fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return err
	}
	return nil
}

func (s *shelfBackend) upsertSQL() string {
	// Placeholders must be positional for postgres/pgx.
	p1, p2, p3, p4, p5 := s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5)
	switch s.driverName {
	case "postgres", "pgx":
		return fmt.Sprintf("INSERT INTO %s (k, v, wa) VALUES (%s, %s, %s) ON CONFLICT (k) DO UPDATE SET v = %s, wa = %s", s.table, p1, p2, p3, p4, p5)
	case "mysql":
		return fmt.Sprintf("INSERT INTO %s (k, v, wa) VALUES (%s, %s, %s) ON DUPLICATE KEY UPDATE v = %s, wa = %s", s.table, p1, p2, p3, p4, p5)
	default: // sqlite
		return fmt.Sprintf("INSERT INTO %s (k, v, wa) VALUES (%s, %s, %s) ON CONFLICT(k) DO UPDATE SET v = %s, wa = %s", s.table, p1, p2, p3, p4, p5)
	}
}

func (s *shelfBackend) ph(i int) string {
	if s.driverName == "postgres" || s.driverName == "pgx" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
