// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package memory provides an in-memory audit log database. Entries do not
// survive a restart; it exists for tests and ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/votehom/votehom/auditlog"
)

var (
	_ auditlog.DB = (*memory)(nil)
)

// memory implements the auditlog.DB interface.
type memory struct {
	sync.RWMutex
	shutdown bool
	entries  []auditlog.Entry // Append order
	byID     map[string]int   // Entry ID to entries index
	byElec   map[int64][]int  // Election ID to entries indexes
	byVoter  map[string][]int // Masked voter within election to indexes
}

func voterKey(maskedVoterID string, electionID int64) string {
	return fmt.Sprintf("%v-%v", maskedVoterID, electionID)
}

// Append adds an entry to the audit trail.
//
// Append satisfies the auditlog.DB interface.
func (m *memory) Append(ctx context.Context, e auditlog.Entry) error {
	m.Lock()
	defer m.Unlock()

	if m.shutdown {
		return auditlog.ErrShutdown
	}

	idx := len(m.entries)
	m.entries = append(m.entries, e)
	m.byID[e.ID] = idx
	m.byElec[e.ElectionID] = append(m.byElec[e.ElectionID], idx)
	vk := voterKey(e.VoterID, e.ElectionID)
	m.byVoter[vk] = append(m.byVoter[vk], idx)

	return nil
}

// Get gets an entry from the database by its ID.
//
// Get satisfies the auditlog.DB interface.
func (m *memory) Get(ctx context.Context, id string) (*auditlog.Entry, error) {
	m.RLock()
	defer m.RUnlock()

	if m.shutdown {
		return nil, auditlog.ErrShutdown
	}

	idx, ok := m.byID[id]
	if !ok {
		return nil, auditlog.ErrNotFound
	}
	e := m.entries[idx]
	return &e, nil
}

// ByElection returns all entries recorded for an election, oldest first.
//
// ByElection satisfies the auditlog.DB interface.
func (m *memory) ByElection(ctx context.Context, electionID int64) ([]auditlog.Entry, error) {
	m.RLock()
	defer m.RUnlock()

	if m.shutdown {
		return nil, auditlog.ErrShutdown
	}

	idxs := m.byElec[electionID]
	entries := make([]auditlog.Entry, 0, len(idxs))
	for _, idx := range idxs {
		entries = append(entries, m.entries[idx])
	}
	return entries, nil
}

// ByVoter returns all entries recorded for a voter in an election, oldest
// first.
//
// ByVoter satisfies the auditlog.DB interface.
func (m *memory) ByVoter(ctx context.Context, voterID string, electionID int64) ([]auditlog.Entry, error) {
	m.RLock()
	defer m.RUnlock()

	if m.shutdown {
		return nil, auditlog.ErrShutdown
	}

	idxs := m.byVoter[voterKey(auditlog.MaskVoterID(voterID), electionID)]
	entries := make([]auditlog.Entry, 0, len(idxs))
	for _, idx := range idxs {
		entries = append(entries, m.entries[idx])
	}
	return entries, nil
}

// Close shuts down the database.
//
// Close satisfies the auditlog.DB interface.
func (m *memory) Close() error {
	m.Lock()
	defer m.Unlock()

	m.shutdown = true
	return nil
}

// New returns a new memory context that implements the auditlog DB
// interface.
func New() *memory {
	return &memory{
		entries: make([]auditlog.Entry, 0, 64),
		byID:    make(map[string]int, 64),
		byElec:  make(map[int64][]int),
		byVoter: make(map[string][]int),
	}
}
