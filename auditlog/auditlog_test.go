// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package auditlog

import (
	"testing"

	"github.com/go-test/deep"
	v1 "github.com/votehom/votehom/authority/v1"
)

func TestMaskVoterID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"national register length", "12345678901", "123.***.**01"},
		{"longer than register", "123456789012345", "123.***.**01"},
		{"short id", "1234", "****"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskVoterID(tc.id); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewEntry(t *testing.T) {
	r := v1.Receipt{
		ReceiptToken:  "RCPT-1",
		VoteHash:      "abc123",
		VotedAt:       "2026-08-30T10:00:00000-3:00",
		ElectionID:    7,
		ElectionTitle: "Board 2026",
		VoterName:     "Ana",
		VoteDetails: []v1.VoteDetail{
			{
				PositionName:    "President",
				CandidateName:   "Bruno",
				CandidateNumber: "10",
			},
			{
				PositionName: "Secretary",
				IsBlankVote:  true,
			},
		},
	}

	e := NewEntry("12345678901", r, true)

	if e.ID == "" {
		t.Error("entry ID not set")
	}
	if e.Timestamp == 0 {
		t.Error("entry timestamp not set")
	}
	if e.VoterID != "123.***.**01" {
		t.Errorf("voter ID not masked: %q", e.VoterID)
	}
	if !e.Resealed {
		t.Error("resealed flag not carried")
	}
	// The receipt is authoritative; its fields are copied verbatim,
	// malformed timestamp included.
	if e.VotedAt != r.VotedAt {
		t.Errorf("voted at: got %q, want %q", e.VotedAt, r.VotedAt)
	}

	want := []VoteRecord{
		{
			PositionName:    "President",
			CandidateName:   "Bruno",
			CandidateNumber: "10",
		},
		{
			PositionName: "Secretary",
			BlankVote:    true,
		},
	}
	if diff := deep.Equal(e.Votes, want); diff != nil {
		t.Error(diff)
	}
}
