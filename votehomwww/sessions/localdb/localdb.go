// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package localdb provides a leveldb backed session database so that voter
// sessions survive a portal restart.
package localdb

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/votehom/votehom/votehomwww/sessions"
)

const (
	// sessionsDirname is the leveldb directory name, relative to the
	// data directory the caller provides.
	sessionsDirname = "sessions"

	sessionKeyPrefix = "session-"
)

func sessionKey(sessionID string) []byte {
	return []byte(sessionKeyPrefix + sessionID)
}

var (
	_ sessions.DB = (*localdb)(nil)
)

// localdb implements the sessions.DB interface.
type localdb struct {
	sync.Mutex
	shutdown  bool        // Backend is shutdown
	root      string      // Database root
	sessiondb *leveldb.DB // Database context
}

// Save saves a session to the database.
//
// Save satisfies the sessions.DB interface.
func (l *localdb) Save(sessionID string, s sessions.EncodedSession) error {
	l.Lock()
	defer l.Unlock()

	if l.shutdown {
		return sessions.ErrShutdown
	}

	log.Tracef("Save: %v", sessionID)

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return l.sessiondb.Put(sessionKey(sessionID), b, nil)
}

// Del deletes a session from the database. An error is not returned if the
// session does not exist.
//
// Del satisfies the sessions.DB interface.
func (l *localdb) Del(sessionID string) error {
	l.Lock()
	defer l.Unlock()

	if l.shutdown {
		return sessions.ErrShutdown
	}

	log.Tracef("Del: %v", sessionID)

	return l.sessiondb.Delete(sessionKey(sessionID), nil)
}

// Get gets a session from the database.
//
// Get satisfies the sessions.DB interface.
func (l *localdb) Get(sessionID string) (*sessions.EncodedSession, error) {
	l.Lock()
	defer l.Unlock()

	if l.shutdown {
		return nil, sessions.ErrShutdown
	}

	log.Tracef("Get: %v", sessionID)

	b, err := l.sessiondb.Get(sessionKey(sessionID), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, sessions.ErrNotFound
		}
		return nil, err
	}
	var s sessions.EncodedSession
	err = json.Unmarshal(b, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Prune deletes all sessions that were created before the given Unix time.
//
// Prune satisfies the sessions.DB interface.
func (l *localdb) Prune(before int64) (int, error) {
	l.Lock()
	defer l.Unlock()

	if l.shutdown {
		return 0, sessions.ErrShutdown
	}

	batch := new(leveldb.Batch)
	iter := l.sessiondb.NewIterator(
		util.BytesPrefix([]byte(sessionKeyPrefix)), nil)
	for iter.Next() {
		var s sessions.EncodedSession
		err := json.Unmarshal(iter.Value(), &s)
		if err != nil {
			// Unreadable entries are pruned too; they can never
			// be decoded into a session again.
			log.Warnf("Prune: unreadable session %s: %v",
				iter.Key(), err)
			batch.Delete(append([]byte(nil), iter.Key()...))
			continue
		}
		if s.CreatedAt < before {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}
	iter.Release()
	err := iter.Error()
	if err != nil {
		return 0, err
	}

	n := batch.Len()
	if n > 0 {
		err = l.sessiondb.Write(batch, nil)
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Close shuts down the database. All interface functions MUST return with
// errors if the database is shutdown.
func (l *localdb) Close() error {
	l.Lock()
	defer l.Unlock()

	l.shutdown = true
	return l.sessiondb.Close()
}

// New opens the session database in the passed data directory, creating it
// if it does not exist.
func New(dataDir string) (*localdb, error) {
	root := filepath.Join(dataDir, sessionsDirname)

	log.Tracef("New: %v", root)

	db, err := leveldb.OpenFile(root, nil)
	if err != nil {
		return nil, err
	}

	return &localdb{
		root:      root,
		sessiondb: db,
	}, nil
}
