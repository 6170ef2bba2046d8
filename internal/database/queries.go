package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bt-catalog/internal/bt"
)

// queryID names a slot in the statement cache.
type queryID int

const (
	qBegin queryID = iota
	qCommit
	qRollback

	qGetProperty
	qSetProperty
	qDeleteProperty

	qInsertCollection
	qFinishCollection
	qGetCollection
	qListCollections
	qLatestCollection

	qInsertFile
	qUpdateFile
	qGetFileByPath
	qFilesBelow
	qAllFiles
	qCountFiles

	qReserveContent
	qCommitContent
	qContentByHash
	qContentByID
	qTouchContent
	qAllContents
	qExpiredContents
	qCountContents

	qUpdateArchive
	qInsertArchive
	qGetArchive
	qListArchives
	qDeleteArchive

	qUpsertVault
	qGetVaultByName
	qListVaults
	qUpsertVaultArchive
	qGetVaultArchive
	qListVaultArchives
	qDeleteVaultArchive

	numQueries
)

const (
	fileColumns         = "id, path, content_length, contents_id, last_write_time, status"
	contentColumns      = "id, hash1, hash2, hash3, hash4, content_length, compressed_content_length, crc32, archive_id, last_collection_id"
	archiveColumns      = "row_id, archive_id, modified_time, compaction_cutoff_collection, checksum_string"
	vaultColumns        = "id, name, region, vault_name, vault_arn"
	vaultArchiveColumns = "id, vault_id, cloud_path, remote_id, description, creation_date, size, crc32, modified_time"
	collectionColumns   = "id, time, time_completed, count_total_files, count_new_contents, count_new_contents_bytes"
)

// committedContent restricts content lookups to rows whose archive
// location has both halves set.
const committedContent = "(archive_id >> 32) != 0 AND (archive_id & 4294967295) != 0"

var queries = [numQueries]struct {
	name string
	sql  string
}{
	qBegin:    {"begin", "BEGIN"},
	qCommit:   {"commit", "COMMIT"},
	qRollback: {"rollback", "ROLLBACK"},

	qGetProperty: {"get property", "SELECT value FROM Properties WHERE name = ?"},
	qSetProperty: {"set property", `INSERT INTO Properties (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`},
	qDeleteProperty: {"delete property", "DELETE FROM Properties WHERE name = ?"},

	qInsertCollection: {"insert collection", "INSERT INTO Collections (time) VALUES (?)"},
	qFinishCollection: {"finish collection", `UPDATE Collections
		SET time_completed = ?, count_total_files = ?, count_new_contents = ?, count_new_contents_bytes = ?
		WHERE id = ? AND time = ? AND time_completed = 0`},
	qGetCollection:    {"get collection", "SELECT " + collectionColumns + " FROM Collections WHERE id = ?"},
	qListCollections:  {"list collections", "SELECT " + collectionColumns + " FROM Collections ORDER BY id"},
	qLatestCollection: {"latest collection", "SELECT " + collectionColumns + " FROM Collections ORDER BY id DESC LIMIT 1"},

	qInsertFile: {"insert file", `INSERT INTO FilesList (path, content_length, contents_id, last_write_time, status)
		VALUES (?, 0, 0, ?, ?)`},
	// The status guard keeps an update from lowering the encoded collection.
	qUpdateFile: {"update file", `UPDATE FilesList
		SET path = ?, content_length = ?, contents_id = ?, last_write_time = ?, status = ?, flags = ?
		WHERE id = ? AND (status >> 2) <= (? >> 2)`},
	qGetFileByPath: {"get file by path", "SELECT " + fileColumns + " FROM FilesList WHERE path = ?"},
	qFilesBelow:    {"files below ceiling", "SELECT " + fileColumns + " FROM FilesList WHERE status < ? ORDER BY id"},
	qAllFiles:      {"all files", "SELECT " + fileColumns + " FROM FilesList ORDER BY id"},
	qCountFiles:    {"count files", "SELECT COUNT(*) FROM FilesList"},

	qReserveContent: {"reserve content", "INSERT INTO ContentsList DEFAULT VALUES"},
	qCommitContent: {"commit content", `UPDATE ContentsList
		SET hash1 = ?, hash2 = ?, hash3 = ?, hash4 = ?, content_length = ?, compressed_content_length = ?,
			crc32 = ?, archive_id = ?, last_collection_id = ?
		WHERE id = ? AND archive_id = 0`},
	qContentByHash: {"content by hash", "SELECT " + contentColumns + ` FROM ContentsList
		WHERE hash1 = ? AND hash2 = ? AND hash3 = ? AND hash4 = ? AND content_length = ? AND ` + committedContent + `
		ORDER BY id LIMIT 1`},
	qContentByID:     {"content by id", "SELECT " + contentColumns + " FROM ContentsList WHERE id = ? AND " + committedContent},
	qTouchContent:    {"touch content", "UPDATE ContentsList SET last_collection_id = ? WHERE id = ?"},
	qAllContents:     {"all contents", "SELECT " + contentColumns + " FROM ContentsList WHERE " + committedContent + " ORDER BY id"},
	qExpiredContents: {"expired contents", "SELECT id FROM ContentsList WHERE last_collection_id < ? AND " + committedContent + " ORDER BY id"},
	qCountContents:   {"count contents", "SELECT COUNT(*) FROM ContentsList"},

	qUpdateArchive: {"update archive", `UPDATE Archives
		SET modified_time = ?, compaction_cutoff_collection = ?, checksum_string = ?
		WHERE archive_id = ?`},
	qInsertArchive: {"insert archive", `INSERT INTO Archives (archive_id, modified_time, compaction_cutoff_collection, checksum_string)
		VALUES (?, ?, ?, ?)`},
	qGetArchive:    {"get archive", "SELECT " + archiveColumns + " FROM Archives WHERE archive_id = ? ORDER BY row_id LIMIT 1"},
	qListArchives:  {"list archives", "SELECT " + archiveColumns + " FROM Archives ORDER BY archive_id"},
	qDeleteArchive: {"delete archive", "DELETE FROM Archives WHERE archive_id = ?"},

	qUpsertVault: {"upsert vault", `INSERT INTO KnownVaults (name, region, vault_name, vault_arn) VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET region = excluded.region, vault_name = excluded.vault_name, vault_arn = excluded.vault_arn
		RETURNING id`},
	qGetVaultByName: {"get vault by name", "SELECT " + vaultColumns + " FROM KnownVaults WHERE name = ?"},
	qListVaults:     {"list vaults", "SELECT " + vaultColumns + " FROM KnownVaults ORDER BY id"},
	qUpsertVaultArchive: {"upsert vault archive", `INSERT INTO KnownVaultArchives
		(vault_id, cloud_path, remote_id, description, creation_date, size, crc32, modified_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cloud_path, vault_id) DO UPDATE SET remote_id = excluded.remote_id,
			description = excluded.description, creation_date = excluded.creation_date, size = excluded.size,
			crc32 = excluded.crc32, modified_time = excluded.modified_time
		RETURNING id`},
	qGetVaultArchive:    {"get vault archive", "SELECT " + vaultArchiveColumns + " FROM KnownVaultArchives WHERE vault_id = ? AND cloud_path = ?"},
	qListVaultArchives:  {"list vault archives", "SELECT " + vaultArchiveColumns + " FROM KnownVaultArchives WHERE vault_id = ? ORDER BY cloud_path"},
	qDeleteVaultArchive: {"delete vault archive", "DELETE FROM KnownVaultArchives WHERE id = ?"},
}

func (q queryID) String() string {
	if q < 0 || q >= numQueries {
		return fmt.Sprintf("queryID(%d)", int(q))
	}
	return queries[q].name
}

// rowExpectation is the number of rows a mutating statement must change.
type rowExpectation int

const (
	anyRows rowExpectation = iota - 1
	noRows
	oneRow
)

func (e rowExpectation) String() string {
	if e == anyRows {
		return "any"
	}
	return fmt.Sprint(int(e))
}

// queryCache prepares each statement on first use and keeps it for the life
// of the connection.
type queryCache struct {
	conn  *sql.Conn
	stmts [numQueries]*sql.Stmt
}

func newQueryCache(conn *sql.Conn) *queryCache {
	return &queryCache{conn: conn}
}

func (c *queryCache) stmt(id queryID) (*sql.Stmt, error) {
	if st := c.stmts[id]; st != nil {
		return st, nil
	}
	st, err := c.conn.PrepareContext(context.Background(), queries[id].sql)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", id, err)
	}
	c.stmts[id] = st
	return st, nil
}

// exec runs a mutating statement and checks how many rows it changed.
func (c *queryCache) exec(id queryID, expect rowExpectation, args ...any) (sql.Result, error) {
	st, err := c.stmt(id)
	if err != nil {
		return nil, err
	}
	res, err := st.ExecContext(context.Background(), args...)
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", id, err)
	}
	if expect == anyRows {
		return res, nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("counting rows for %s: %w", id, err)
	}
	if n != int64(expect) {
		return nil, fmt.Errorf("%w: %s changed %d rows, want %s", bt.ErrUnexpectedRowCount, id, n, expect)
	}
	return res, nil
}

func (c *queryCache) queryRow(id queryID, args ...any) (*sql.Row, error) {
	st, err := c.stmt(id)
	if err != nil {
		return nil, err
	}
	return st.QueryRowContext(context.Background(), args...), nil
}

func (c *queryCache) query(id queryID, args ...any) (*sql.Rows, error) {
	st, err := c.stmt(id)
	if err != nil {
		return nil, err
	}
	rows, err := st.QueryContext(context.Background(), args...)
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", id, err)
	}
	return rows, nil
}

// close finalizes every prepared statement.
func (c *queryCache) close() error {
	var errs []error
	for i, st := range c.stmts {
		if st == nil {
			continue
		}
		if err := st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("finalizing %s: %w", queryID(i), err))
		}
		c.stmts[i] = nil
	}
	return errors.Join(errs...)
}
