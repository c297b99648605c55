// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mysql provides a mysql backed audit log database.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/votehom/votehom/auditlog"
)

const (
	// defaultTableName is the default table name for the audit table.
	defaultTableName = "audit"

	// defaultOpTimeout is the default timeout for a single database
	// operation.
	defaultOpTimeout = 1 * time.Minute
)

// tableAudit defines the audit table. The seq column orders the trail; the
// id column is the entry UUID. There are no update or delete statements
// against this table anywhere in this package.
const tableAudit = `
  seq         BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  id          CHAR(36) NOT NULL UNIQUE,
  election_id BIGINT NOT NULL,
  voter_id    VARCHAR(64) NOT NULL,
  entry_blob  BLOB NOT NULL,
  KEY election_idx (election_id),
  KEY voter_idx (voter_id, election_id)
`

// Opts includes configurable options for the audit database.
type Opts struct {
	// TableName is the table name for the audit table. Defaults to
	// "audit".
	TableName string

	// OpTimeout is the timeout for a single database operation. Defaults
	// to 1 minute.
	OpTimeout time.Duration
}

var (
	_ auditlog.DB = (*mysql)(nil)
)

// mysql implements the auditlog.DB interface.
type mysql struct {
	// db is the mysql DB context.
	db *sql.DB

	// opts includes the audit database options.
	opts *Opts
}

// ctxForOp returns a context and cancel function for a single database
// operation. It bounds the caller's context with the database operation
// timeout set on the mysql context.
func (m *mysql) ctxForOp(ctx context.Context) (context.Context, func()) {
	return context.WithTimeout(ctx, m.opts.OpTimeout)
}

// Append adds an entry to the audit trail.
//
// Append satisfies the auditlog.DB interface.
func (m *mysql) Append(ctx context.Context, e auditlog.Entry) error {
	log.Tracef("Append: %v", e.ID)

	// Marshal entry
	eb, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := m.ctxForOp(ctx)
	defer cancel()

	// Save entry to database. The voter ID column holds the masked
	// form, same as the blob.
	q := fmt.Sprintf(`INSERT INTO %v
  (id, election_id, voter_id, entry_blob) VALUES (?, ?, ?, ?)`,
		m.opts.TableName)
	_, err = m.db.ExecContext(ctx, q, e.ID, e.ElectionID, e.VoterID, eb)
	if err != nil {
		return err
	}

	return nil
}

// Get gets an entry from the database by its ID. An ErrNotFound error is
// returned if an entry is not found for the ID.
//
// Get satisfies the auditlog.DB interface.
func (m *mysql) Get(ctx context.Context, id string) (*auditlog.Entry, error) {
	log.Tracef("Get: %v", id)

	ctx, cancel := m.ctxForOp(ctx)
	defer cancel()

	// Get entry
	var entryBlob []byte
	err := m.db.QueryRowContext(ctx,
		"SELECT entry_blob FROM "+m.opts.TableName+" WHERE id = ?",
		id).Scan(&entryBlob)
	switch {
	case err == sql.ErrNoRows:
		return nil, auditlog.ErrNotFound
	case err != nil:
		return nil, err
	}

	// Decode blob
	var e auditlog.Entry
	err = json.Unmarshal(entryBlob, &e)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// ByElection returns all entries recorded for an election, oldest first.
//
// ByElection satisfies the auditlog.DB interface.
func (m *mysql) ByElection(ctx context.Context, electionID int64) ([]auditlog.Entry, error) {
	log.Tracef("ByElection: %v", electionID)

	ctx, cancel := m.ctxForOp(ctx)
	defer cancel()

	q := "SELECT entry_blob FROM " + m.opts.TableName +
		" WHERE election_id = ? ORDER BY seq ASC"
	rows, err := m.db.QueryContext(ctx, q, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]auditlog.Entry, 0, 64)
	for rows.Next() {
		var entryBlob []byte
		err = rows.Scan(&entryBlob)
		if err != nil {
			return nil, err
		}
		var e auditlog.Entry
		err = json.Unmarshal(entryBlob, &e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ByVoter returns all entries recorded for a voter in an election, oldest
// first. The trail stores masked voter IDs, so the raw ID is masked before
// matching.
//
// ByVoter satisfies the auditlog.DB interface.
func (m *mysql) ByVoter(ctx context.Context, voterID string, electionID int64) ([]auditlog.Entry, error) {
	log.Tracef("ByVoter: election %v", electionID)

	ctx, cancel := m.ctxForOp(ctx)
	defer cancel()

	q := "SELECT entry_blob FROM " + m.opts.TableName +
		" WHERE voter_id = ? AND election_id = ? ORDER BY seq ASC"
	rows, err := m.db.QueryContext(ctx, q,
		auditlog.MaskVoterID(voterID), electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]auditlog.Entry, 0, 64)
	for rows.Next() {
		var entryBlob []byte
		err = rows.Scan(&entryBlob)
		if err != nil {
			return nil, err
		}
		var e auditlog.Entry
		err = json.Unmarshal(entryBlob, &e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Close shuts down the database.
//
// Close satisfies the auditlog.DB interface.
func (m *mysql) Close() error {
	return m.db.Close()
}

// New returns a new mysql context that implements the auditlog DB
// interface. The opts param can be used to override the default mysql
// context settings.
func New(db *sql.DB, opts *Opts) (*mysql, error) {
	// Setup database options.
	tableName := defaultTableName
	opTimeout := defaultOpTimeout
	// Override defaults if options are provided
	if opts != nil {
		if opts.TableName != "" {
			tableName = opts.TableName
		}
		if opts.OpTimeout != 0 {
			opTimeout = opts.OpTimeout
		}
	}

	// Create mysql context
	m := mysql{
		db: db,
		opts: &Opts{
			TableName: tableName,
			OpTimeout: opTimeout,
		},
	}

	ctx, cancel := m.ctxForOp(context.Background())
	defer cancel()

	// Create audit table
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v (%v)`,
		m.opts.TableName, tableAudit)
	_, err := db.ExecContext(ctx, q)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
