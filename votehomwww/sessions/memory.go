// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sessions

import (
	"sync"
	"time"
)

func unixNow() int64 {
	return time.Now().Unix()
}

var (
	_ DB = (*memoryDB)(nil)
)

// memoryDB implements the DB interface in memory. Sessions do not survive a
// restart; a voter whose session vanishes mid-ballot simply logs in again.
type memoryDB struct {
	sync.RWMutex
	sessions map[string]EncodedSession
}

// Save saves a session to the database.
//
// Save satisfies the DB interface.
func (m *memoryDB) Save(sessionID string, s EncodedSession) error {
	m.Lock()
	defer m.Unlock()

	m.sessions[sessionID] = s
	return nil
}

// Del deletes a session from the database. An error is not returned if the
// session does not exist.
//
// Del satisfies the DB interface.
func (m *memoryDB) Del(sessionID string) error {
	m.Lock()
	defer m.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// Get gets a session from the database. An ErrNotFound error is returned
// if a session is not found for the session ID.
//
// Get satisfies the DB interface.
func (m *memoryDB) Get(sessionID string) (*EncodedSession, error) {
	m.RLock()
	defer m.RUnlock()

	es, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &es, nil
}

// Prune deletes all sessions created before the given Unix time.
//
// Prune satisfies the DB interface.
func (m *memoryDB) Prune(before int64) (int, error) {
	m.Lock()
	defer m.Unlock()

	var n int
	for id, es := range m.sessions {
		if es.CreatedAt < before {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// NewMemoryDB returns an in-memory session database.
func NewMemoryDB() DB {
	return &memoryDB{
		sessions: make(map[string]EncodedSession),
	}
}
