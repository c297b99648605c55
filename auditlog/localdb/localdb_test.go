// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-test/deep"
	"github.com/votehom/votehom/auditlog"
)

func newTestDB(t *testing.T) *localdb {
	t.Helper()

	db, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func testEntry(id string, electionID int64) auditlog.Entry {
	return auditlog.Entry{
		ID:           id,
		Timestamp:    1756600000,
		ElectionID:   electionID,
		VoterID:      "123.***.**01",
		ReceiptToken: "RCPT-" + id,
		Votes: []auditlog.VoteRecord{
			{PositionName: "President", CandidateName: "Bruno"},
		},
	}
}

func TestAppendGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	e := testEntry("a", 7)
	if err := db.Append(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := db.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(*got, e); diff != nil {
		t.Error(diff)
	}

	_, err = db.Get(ctx, "missing")
	if !errors.Is(err, auditlog.ErrNotFound) {
		t.Errorf("got err %v, want %v", err, auditlog.ErrNotFound)
	}
}

func TestByElectionOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	// Interleave two elections to verify filtering and ordering.
	for i := 0; i < 6; i++ {
		electionID := int64(7)
		if i%2 == 1 {
			electionID = 8
		}
		e := testEntry(fmt.Sprintf("entry-%v", i), electionID)
		if err := db.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := db.ByElection(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	var gotIDs []string
	for _, e := range entries {
		gotIDs = append(gotIDs, e.ID)
	}
	want := []string{"entry-0", "entry-2", "entry-4"}
	if diff := deep.Equal(gotIDs, want); diff != nil {
		t.Error(diff)
	}
}

func TestByVoter(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if err := db.Append(ctx, testEntry("a", 7)); err != nil {
		t.Fatal(err)
	}
	other := testEntry("b", 7)
	other.VoterID = "999.***.**88"
	if err := db.Append(ctx, other); err != nil {
		t.Fatal(err)
	}

	// The raw voter ID is masked before matching.
	entries, err := db.ByVoter(ctx, "12345678901", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "a" {
		t.Errorf("got %v entries, want entry a only", len(entries))
	}
}

func TestShutdown(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	err := db.Append(ctx, testEntry("a", 7))
	if !errors.Is(err, auditlog.ErrShutdown) {
		t.Errorf("got err %v, want %v", err, auditlog.ErrShutdown)
	}
}
