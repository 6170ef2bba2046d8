// Package database implements bt.Database on a single SQLite connection.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/database/migrations"
)

// MemoryPath opens a private in-memory catalog.
const MemoryPath = ":memory:"

const schemaVersionProperty = "SchemaVersion"

// SQLiteDatabase implements the Database interface using SQLite.
//
// All statements run on one held connection, so BEGIN and COMMIT issued as
// plain statements scope every cached statement in between.
type SQLiteDatabase struct {
	db      *sql.DB
	conn    *sql.Conn
	queries *queryCache
	path    string
	logger  bt.Logger

	inTx   bool
	closed bool
}

var _ bt.Database = (*SQLiteDatabase)(nil)

// Open opens or creates the catalog at path. path must be absolute and its
// directory writable, or MemoryPath.
//
// A fresh or empty file gets the current schema. A file whose schema is
// missing or half-built is repaired once. A file that is not a SQLite
// database, a SQLite database holding only tables of some other
// application, or a catalog whose SchemaVersion is newer than this build
// fails with bt.ErrIncompatibleVersion.
func Open(path string, logger bt.Logger) (*SQLiteDatabase, error) {
	if logger == nil {
		logger = bt.NewNopLogger()
	}
	if err := validateLocation(path); err != nil {
		return nil, err
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := checkForeignSchema(db, path); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		if isNotADatabase(err) {
			db.Close()
			return nil, fmt.Errorf("%w: %s is not a catalog: %v", bt.ErrIncompatibleVersion, path, err)
		}
		logger.Warn("catalog schema incomplete, recreating", "path", path, "error", err)
		if rerr := migrations.Recover(db); rerr != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema in %s: %w", path, rerr)
		}
	}

	conn, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("acquiring connection to %s: %w", path, err)
	}

	s := &SQLiteDatabase{
		db:      db,
		conn:    conn,
		queries: newQueryCache(conn),
		path:    path,
		logger:  logger,
	}

	if err := s.checkSchemaVersion(); err != nil {
		s.Close()
		return nil, err
	}

	logger.Debug("catalog opened", "path", path)
	return s, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// The pool is capped at one connection: the catalog is single-threaded and
// an in-memory database exists only on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_mutex=no")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		if isNotADatabase(err) {
			return nil, fmt.Errorf("%w: %s is not a catalog: %v", bt.ErrIncompatibleVersion, path, err)
		}
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// catalogTables are the tables whose presence marks a file as a catalog,
// complete or not.
var catalogTables = map[string]bool{
	"Collections":       true,
	"ContentsList":      true,
	"FilesList":         true,
	"Properties":        true,
	"schema_migrations": true,
}

// checkForeignSchema refuses a database that has tables but none of the
// catalog's. Such a file belongs to something else and must not be migrated.
func checkForeignSchema(db *sql.DB, path string) error {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		if isNotADatabase(err) {
			return fmt.Errorf("%w: %s is not a catalog: %v", bt.ErrIncompatibleVersion, path, err)
		}
		return fmt.Errorf("reading schema of %s: %w", path, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("reading schema of %s: %w", path, err)
		}
		if catalogTables[name] {
			return nil
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading schema of %s: %w", path, err)
	}

	if len(tables) > 0 {
		return fmt.Errorf("%w: %s holds tables %s and no catalog schema",
			bt.ErrIncompatibleVersion, path, strings.Join(tables, ", "))
	}
	return nil
}

func validateLocation(path string) error {
	if path == MemoryPath {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: catalog path %q is not absolute", bt.ErrIO, path)
	}
	dir := filepath.Dir(path)
	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("%w: catalog directory %s is not writable: %v", bt.ErrIO, dir, err)
	}
	return nil
}

// checkSchemaVersion reads SchemaVersion, repairing the schema once if the
// property store is missing.
func (s *SQLiteDatabase) checkSchemaVersion() error {
	version, found, err := s.GetIntProperty(schemaVersionProperty)
	if err != nil && !isMissingTable(err) {
		return fmt.Errorf("reading schema version of %s: %w", s.path, err)
	}

	if err != nil || !found {
		s.logger.Warn("catalog schema version missing, recreating", "path", s.path)
		if err := s.applySchema(); err != nil {
			return err
		}
		version, found, err = s.GetIntProperty(schemaVersionProperty)
		if err != nil {
			return fmt.Errorf("reading schema version of %s: %w", s.path, err)
		}
		if !found {
			return fmt.Errorf("catalog %s has no schema version after recovery", s.path)
		}
	}

	if version > migrations.SchemaVersion {
		return fmt.Errorf("%w: %s has schema version %d, this build supports %d",
			bt.ErrIncompatibleVersion, s.path, version, migrations.SchemaVersion)
	}
	return nil
}

func (s *SQLiteDatabase) applySchema() error {
	schema, err := migrations.Schema()
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(context.Background(), schema); err != nil {
		return fmt.Errorf("creating schema in %s: %w", s.path, err)
	}
	return nil
}

// Path returns the catalog file path.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// BackupTo writes a consistent copy of the catalog to destPath.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if s.inTx {
		return fmt.Errorf("%w: cannot back up inside a transaction", bt.ErrInvalidTransactionState)
	}
	if _, err := s.conn.ExecContext(context.Background(), "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up catalog to %s: %w", destPath, err)
	}
	return nil
}

// CheckMigrations verifies the schema is at this build's version.
func (s *SQLiteDatabase) CheckMigrations() error {
	// The migrate driver needs the pooled connection back while it runs.
	if err := s.queries.close(); err != nil {
		s.logger.Warn("finalizing cached statements", "error", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("releasing connection: %w", err)
	}
	checkErr := migrations.CheckDBMigrationStatus(s.db)

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("reacquiring connection to %s: %w", s.path, err)
	}
	s.conn = conn
	s.queries = newQueryCache(conn)
	return checkErr
}

// Close finalizes cached statements and closes the connection. Errors from
// the secondary steps are logged; only the final close error is returned.
func (s *SQLiteDatabase) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.inTx {
		if _, err := s.queries.exec(qRollback, anyRows); err != nil {
			s.logger.Warn("rolling back open transaction on close", "path", s.path, "error", err)
		}
		s.inTx = false
	}
	if err := s.queries.close(); err != nil {
		s.logger.Warn("finalizing cached statements", "path", s.path, "error", err)
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Warn("releasing catalog connection", "path", s.path, "error", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing catalog %s: %w", s.path, err)
	}
	return nil
}

func sqliteCode(err error) (sqlite3.Error, bool) {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr, true
	}
	return serr, false
}

func isUniqueViolation(err error) bool {
	serr, ok := sqliteCode(err)
	return ok && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// isNotADatabase also matches on text because golang-migrate does not wrap
// driver errors.
func isNotADatabase(err error) bool {
	if serr, ok := sqliteCode(err); ok && serr.Code == sqlite3.ErrNotADB {
		return true
	}
	return strings.Contains(err.Error(), "is not a database")
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
