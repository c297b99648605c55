// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ballot

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-test/deep"
	v1 "github.com/votehom/votehom/authority/v1"
)

func testPositions() []v1.Position {
	// Deliberately out of ballot order, with an inactive position mixed
	// in.
	return []v1.Position{
		{ID: 30, Title: "Treasurer", OrderPosition: 3, IsActive: true},
		{ID: 10, Title: "President", OrderPosition: 1, IsActive: true},
		{ID: 99, Title: "Retired", OrderPosition: 2, IsActive: false},
		{ID: 20, Title: "Secretary", OrderPosition: 2, IsActive: true},
	}
}

func candidate(id int64) Choice {
	return Choice{CandidateID: id}
}

func TestNew(t *testing.T) {
	s, err := New(7, testPositions())
	if err != nil {
		t.Fatal(err)
	}

	// Inactive positions are dropped and the rest walk in ballot order.
	var gotIDs []int64
	for _, p := range s.Positions() {
		gotIDs = append(gotIDs, p.ID)
	}
	wantIDs := []int64{10, 20, 30}
	if diff := deep.Equal(gotIDs, wantIDs); diff != nil {
		t.Error(diff)
	}

	_, err = New(7, []v1.Position{
		{ID: 1, IsActive: false},
	})
	if !errors.Is(err, ErrNoPositions) {
		t.Errorf("got err %v, want %v", err, ErrNoPositions)
	}
}

func TestSubmitChoiceAdvances(t *testing.T) {
	s, err := New(7, testPositions())
	if err != nil {
		t.Fatal(err)
	}

	cur, ok := s.Current()
	if !ok || cur.ID != 10 {
		t.Fatalf("current: got %v, want position 10", cur.ID)
	}

	err = s.SubmitChoice(candidate(101))
	if err != nil {
		t.Fatal(err)
	}
	cur, ok = s.Current()
	if !ok || cur.ID != 20 {
		t.Fatalf("current after submit: got %v, want position 20",
			cur.ID)
	}

	done, total := s.Progress()
	if done != 1 || total != 3 {
		t.Errorf("progress: got %v/%v, want 1/3", done, total)
	}
}

func TestChoiceValidation(t *testing.T) {
	tests := []struct {
		name    string
		choice  Choice
		wantErr bool
	}{
		{"candidate", Choice{CandidateID: 5}, false},
		{"blank", Choice{Blank: true}, false},
		{"null", Choice{Null: true}, false},
		{"empty", Choice{}, true},
		{"candidate and blank", Choice{CandidateID: 5, Blank: true}, true},
		{"blank and null", Choice{Blank: true, Null: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(7, testPositions())
			if err != nil {
				t.Fatal(err)
			}
			err = s.SubmitChoice(tc.choice)
			gotErr := errors.Is(err, ErrInvalidChoice)
			if gotErr != tc.wantErr {
				t.Errorf("got err %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

// TestGoBackDropsChoice verifies that going back discards the choice of the
// position being returned to, so a re-decided position can never carry a
// stale choice into the final ballot.
func TestGoBackDropsChoice(t *testing.T) {
	s, err := New(7, testPositions())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SubmitChoice(candidate(101)); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitChoice(candidate(201)); err != nil {
		t.Fatal(err)
	}

	if err := s.GoBack(); err != nil {
		t.Fatal(err)
	}

	// Back at position 20 with its choice gone.
	cur, ok := s.Current()
	if !ok || cur.ID != 20 {
		t.Fatalf("current after go back: got %v, want position 20",
			cur.ID)
	}
	if _, ok := s.Choice(20); ok {
		t.Error("choice for position 20 survived a go back")
	}
	if _, ok := s.Choice(10); !ok {
		t.Error("choice for position 10 should be untouched")
	}

	done, total := s.Progress()
	if done != 1 || total != 3 {
		t.Errorf("progress: got %v/%v, want 1/3", done, total)
	}
}

func TestGoBackAtFirstPosition(t *testing.T) {
	s, err := New(7, testPositions())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.GoBack(); !errors.Is(err, ErrAtFirstPosition) {
		t.Errorf("got err %v, want %v", err, ErrAtFirstPosition)
	}
}

func TestFinalize(t *testing.T) {
	s, err := New(7, testPositions())
	if err != nil {
		t.Fatal(err)
	}

	// Finalizing early fails.
	if _, err := s.Finalize(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("got err %v, want %v", err, ErrIncomplete)
	}

	if err := s.SubmitChoice(candidate(101)); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitChoice(Choice{Blank: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitChoice(Choice{Null: true}); err != nil {
		t.Fatal(err)
	}

	if !s.Complete() {
		t.Fatal("session should be complete")
	}
	if err := s.SubmitChoice(candidate(999)); !errors.Is(err, ErrComplete) {
		t.Fatalf("got err %v, want %v", err, ErrComplete)
	}

	got, err := s.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	cid := int64(101)
	want := []v1.VoteEntry{
		{PositionID: 10, CandidateID: &cid},
		{PositionID: 20, IsBlankVote: true},
		{PositionID: 30, IsNullVote: true},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}

	// The session is frozen once finalized.
	if err := s.GoBack(); !errors.Is(err, ErrFinalized) {
		t.Errorf("go back after finalize: got err %v, want %v",
			err, ErrFinalized)
	}
	if err := s.SubmitChoice(candidate(1)); !errors.Is(err, ErrFinalized) {
		t.Errorf("submit after finalize: got err %v, want %v",
			err, ErrFinalized)
	}
}

// TestSessionRoundTrip verifies a mid-ballot session survives being parked
// in a session store and picked back up.
func TestSessionRoundTrip(t *testing.T) {
	s, err := New(7, testPositions())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitChoice(candidate(101)); err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var restored Session
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatal(err)
	}

	cur, ok := restored.Current()
	if !ok || cur.ID != 20 {
		t.Fatalf("restored cursor: got position %v, want 20", cur.ID)
	}
	if c, ok := restored.Choice(10); !ok || c.CandidateID != 101 {
		t.Errorf("restored choice: got %+v, want candidate 101", c)
	}

	// The restored session keeps working where it left off.
	if err := restored.SubmitChoice(Choice{Blank: true}); err != nil {
		t.Fatal(err)
	}
	if err := restored.SubmitChoice(Choice{Null: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := restored.Finalize(); err != nil {
		t.Fatal(err)
	}
}
