// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package auditlog defines the append-only audit trail of vote submissions.
// Every accepted ballot produces one entry, derived from the receipt the
// authority issued, never recomputed locally. The persistence backend is
// pluggable; implementations live in the subpackages.
package auditlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	v1 "github.com/votehom/votehom/authority/v1"
)

var (
	// ErrNotFound is returned when an entry is not found in the database.
	ErrNotFound = errors.New("audit entry not found")

	// ErrShutdown is returned when a database call is made after the
	// database has been shut down.
	ErrShutdown = errors.New("audit database is shutdown")
)

// DB represents the database for audit entries. The trail is append-only;
// implementations do not expose update or delete operations.
type DB interface {
	// Append adds an entry to the audit trail.
	Append(ctx context.Context, e Entry) error

	// Get gets an entry from the database by its ID.
	//
	// An ErrNotFound error MUST be returned if an entry is not found
	// for the ID.
	Get(ctx context.Context, id string) (*Entry, error)

	// ByElection returns all entries recorded for an election, oldest
	// first.
	ByElection(ctx context.Context, electionID int64) ([]Entry, error)

	// ByVoter returns all entries recorded for a voter in an election,
	// oldest first. The voter ID may be passed raw; implementations
	// mask it before matching since only masked IDs are stored.
	ByVoter(ctx context.Context, voterID string, electionID int64) ([]Entry, error)

	// Close shuts down the database.
	Close() error
}

// VoteRecord is a per position line item of an Entry. It is copied from the
// receipt's detail lines.
type VoteRecord struct {
	PositionName    string `json:"positionname"`
	CandidateName   string `json:"candidatename,omitempty"`
	CandidateNumber string `json:"candidatenumber,omitempty"`
	BlankVote       bool   `json:"blankvote,omitempty"`
	NullVote        bool   `json:"nullvote,omitempty"`
}

// Entry is a single record of the audit trail.
type Entry struct {
	ID            string       `json:"id"`        // Entry UUID
	Timestamp     int64        `json:"timestamp"` // Unix time of recording
	ElectionID    int64        `json:"electionid"`
	ElectionTitle string       `json:"electiontitle"`
	VoterID       string       `json:"voterid"` // Masked, never raw
	VoterName     string       `json:"votername"`
	ReceiptToken  string       `json:"receipttoken"`
	VoteHash      string       `json:"votehash"`
	VotedAt       string       `json:"votedat"` // Authority timestamp, raw
	Votes         []VoteRecord `json:"votes"`
	Resealed      bool         `json:"resealed,omitempty"`
}

// MaskVoterID masks a voter ID for storage. IDs of national register length
// keep their first three and last two digits; anything shorter is fully
// masked. Raw voter IDs must never reach the audit trail.
func MaskVoterID(id string) string {
	if len(id) >= 11 {
		return id[:3] + ".***.**" + id[9:11]
	}
	return strings.Repeat("*", len(id))
}

// NewEntry builds an audit entry from an authority receipt. The resealed
// flag records that the election was unsealed and resealed to admit this
// vote.
func NewEntry(voterID string, r v1.Receipt, resealed bool) Entry {
	votes := make([]VoteRecord, 0, len(r.VoteDetails))
	for _, d := range r.VoteDetails {
		votes = append(votes, VoteRecord{
			PositionName:    d.PositionName,
			CandidateName:   d.CandidateName,
			CandidateNumber: d.CandidateNumber,
			BlankVote:       d.IsBlankVote,
			NullVote:        d.IsNullVote,
		})
	}
	return Entry{
		ID:            uuid.New().String(),
		Timestamp:     time.Now().Unix(),
		ElectionID:    r.ElectionID,
		ElectionTitle: r.ElectionTitle,
		VoterID:       MaskVoterID(voterID),
		VoterName:     r.VoterName,
		ReceiptToken:  r.ReceiptToken,
		VoteHash:      r.VoteHash,
		VotedAt:       r.VotedAt,
		Votes:         votes,
		Resealed:      resealed,
	}
}
