// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/go-test/deep"
	"github.com/votehom/votehom/auditlog"
)

func testEntry(id string, electionID int64) auditlog.Entry {
	return auditlog.Entry{
		ID:           id,
		Timestamp:    1756600000,
		ElectionID:   electionID,
		VoterID:      "123.***.**01",
		ReceiptToken: "RCPT-" + id,
	}
}

func TestAppendGet(t *testing.T) {
	ctx := context.Background()
	db := New()

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
	db := New()

	for _, id := range []string{"a", "b", "c"} {
		if err := db.Append(ctx, testEntry(id, 7)); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Append(ctx, testEntry("other", 8)); err != nil {
		t.Fatal(err)
	}

	entries, err := db.ByElection(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	var gotIDs []string
	for _, e := range entries {
		gotIDs = append(gotIDs, e.ID)
	}
	want := []string{"a", "b", "c"}
	if diff := deep.Equal(gotIDs, want); diff != nil {
		t.Error(diff)
	}

	entries, err = db.ByElection(ctx, 99)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %v entries for unknown election", len(entries))
	}
}

func TestByVoter(t *testing.T) {
	ctx := context.Background()
	db := New()

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
	db := New()

	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if err := db.Append(ctx, testEntry("a", 7)); !errors.Is(err, auditlog.ErrShutdown) {
		t.Errorf("got err %v, want %v", err, auditlog.ErrShutdown)
	}
	if _, err := db.Get(ctx, "a"); !errors.Is(err, auditlog.ErrShutdown) {
		t.Errorf("got err %v, want %v", err, auditlog.ErrShutdown)
	}
}
