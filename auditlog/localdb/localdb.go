// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package localdb provides a leveldb backed audit log database for single
// node deployments.
package localdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/votehom/votehom/auditlog"
)

const (
	// auditDirname is the leveldb directory name, relative to the data
	// directory the caller provides.
	auditDirname = "audit"

	// lastSeqKey holds the sequence number of the most recent entry.
	// Sequence numbers order the trail; entry keys embed them zero
	// padded so that lexicographic iteration is append order.
	lastSeqKey = "lastseq"

	entryKeyPrefix = "entry-"
	idKeyPrefix    = "id-"
)

func entryKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%v%020d", entryKeyPrefix, seq))
}

func idKey(id string) []byte {
	return []byte(idKeyPrefix + id)
}

var (
	_ auditlog.DB = (*localdb)(nil)
)

// localdb implements the auditlog.DB interface.
type localdb struct {
	sync.RWMutex
	shutdown bool        // Backend is shutdown
	root     string      // Database root
	auditdb  *leveldb.DB // Database context
}

// Append adds an entry to the audit trail.
//
// Append satisfies the auditlog.DB interface.
func (l *localdb) Append(ctx context.Context, e auditlog.Entry) error {
	l.Lock()
	defer l.Unlock()

	if l.shutdown {
		return auditlog.ErrShutdown
	}

	log.Debugf("Append: %v election %v", e.ID, e.ElectionID)

	// Fetch the next sequence number.
	var seq uint64
	b, err := l.auditdb.Get([]byte(lastSeqKey), nil)
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	} else {
		seq = binary.LittleEndian.Uint64(b) + 1
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	// Write the entry, the ID index and the sequence counter in a
	// single batch.
	b = make([]byte, 8)
	binary.LittleEndian.PutUint64(b, seq)
	batch := new(leveldb.Batch)
	batch.Put(entryKey(seq), payload)
	batch.Put(idKey(e.ID), entryKey(seq))
	batch.Put([]byte(lastSeqKey), b)
	return l.auditdb.Write(batch, nil)
}

// Get gets an entry from the database by its ID.
//
// Get satisfies the auditlog.DB interface.
func (l *localdb) Get(ctx context.Context, id string) (*auditlog.Entry, error) {
	l.RLock()
	defer l.RUnlock()

	if l.shutdown {
		return nil, auditlog.ErrShutdown
	}

	log.Tracef("Get: %v", id)

	key, err := l.auditdb.Get(idKey(id), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, auditlog.ErrNotFound
		}
		return nil, err
	}
	payload, err := l.auditdb.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, auditlog.ErrNotFound
		}
		return nil, err
	}

	var e auditlog.Entry
	err = json.Unmarshal(payload, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ByElection returns all entries recorded for an election, oldest first.
//
// ByElection satisfies the auditlog.DB interface.
func (l *localdb) ByElection(ctx context.Context, electionID int64) ([]auditlog.Entry, error) {
	l.RLock()
	defer l.RUnlock()

	if l.shutdown {
		return nil, auditlog.ErrShutdown
	}

	log.Tracef("ByElection: %v", electionID)

	entries := make([]auditlog.Entry, 0, 64)
	iter := l.auditdb.NewIterator(
		util.BytesPrefix([]byte(entryKeyPrefix)), nil)
	defer iter.Release()
	for iter.Next() {
		key := string(iter.Key())
		if !strings.HasPrefix(key, entryKeyPrefix) {
			continue
		}
		var e auditlog.Entry
		err := json.Unmarshal(iter.Value(), &e)
		if err != nil {
			return nil, err
		}
		if e.ElectionID != electionID {
			continue
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ByVoter returns all entries recorded for a voter in an election, oldest
// first. The trail stores masked voter IDs, so the raw ID is masked before
// matching.
//
// ByVoter satisfies the auditlog.DB interface.
func (l *localdb) ByVoter(ctx context.Context, voterID string, electionID int64) ([]auditlog.Entry, error) {
	masked := auditlog.MaskVoterID(voterID)

	all, err := l.ByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	entries := make([]auditlog.Entry, 0, len(all))
	for _, e := range all {
		if e.VoterID != masked {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close shuts down the database.
//
// Close satisfies the auditlog.DB interface.
func (l *localdb) Close() error {
	l.Lock()
	defer l.Unlock()

	l.shutdown = true
	return l.auditdb.Close()
}

// New returns a new localdb context that implements the auditlog DB
// interface. The database is created under the provided data directory if
// it does not exist yet.
func New(dataDir string) (*localdb, error) {
	root := filepath.Join(dataDir, auditDirname)

	log.Tracef("audit localdb: %v", root)

	db, err := leveldb.OpenFile(root, nil)
	if err != nil {
		return nil, err
	}

	return &localdb{
		root:    root,
		auditdb: db,
	}, nil
}
