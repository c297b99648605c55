// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ballot tracks a voter's progress through the positions of an
// election. A session walks the positions in ballot order, collects one
// choice per position, and only releases the assembled ballot once every
// position has a choice.
package ballot

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	v1 "github.com/votehom/votehom/authority/v1"
)

var (
	// ErrNoPositions is returned when a session is created for an
	// election without any active positions.
	ErrNoPositions = errors.New("election has no positions")

	// ErrIncomplete is returned when a ballot is finalized before every
	// position has a choice.
	ErrIncomplete = errors.New("ballot is incomplete")

	// ErrComplete is returned when a choice is submitted to a session
	// that already has a choice for every position.
	ErrComplete = errors.New("ballot is already complete")

	// ErrAtFirstPosition is returned when going back from the first
	// position of the ballot.
	ErrAtFirstPosition = errors.New("already at the first position")

	// ErrInvalidChoice is returned when a choice does not identify
	// exactly one of candidate, blank or null.
	ErrInvalidChoice = errors.New("choice must be exactly one of " +
		"candidate, blank or null")

	// ErrFinalized is returned when a finalized session is mutated. A
	// ballot that has been handed to submission must never change
	// underneath it.
	ErrFinalized = errors.New("ballot has been finalized")
)

// Choice is a voter's decision for a single position. Exactly one of
// CandidateID, Blank or Null must be set.
type Choice struct {
	CandidateID int64
	Blank       bool
	Null        bool
}

// valid returns whether exactly one of the choice kinds is set.
func (c Choice) valid() bool {
	kinds := 0
	if c.CandidateID != 0 {
		kinds++
	}
	if c.Blank {
		kinds++
	}
	if c.Null {
		kinds++
	}
	return kinds == 1
}

// Session tracks one voter's walk through an election's positions. Sessions
// are not safe for concurrent use; the caller serializes access the same
// way it serializes the rest of the voter's session state.
type Session struct {
	ElectionID int64

	positions []v1.Position
	choices   map[int64]Choice // Keyed by position ID
	cursor    int
	finalized bool
}

// New returns a session over the given positions. The positions are walked
// in their ballot order regardless of the order they were provided in.
func New(electionID int64, positions []v1.Position) (*Session, error) {
	active := make([]v1.Position, 0, len(positions))
	for _, p := range positions {
		if !p.IsActive {
			continue
		}
		active = append(active, p)
	}
	if len(active) == 0 {
		return nil, ErrNoPositions
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].OrderPosition < active[j].OrderPosition
	})
	return &Session{
		ElectionID: electionID,
		positions:  active,
		choices:    make(map[int64]Choice, len(active)),
		cursor:     0,
	}, nil
}

// Current returns the position the voter is currently deciding. The second
// return value is false once the ballot is complete.
func (s *Session) Current() (v1.Position, bool) {
	if s.Complete() {
		return v1.Position{}, false
	}
	return s.positions[s.cursor], true
}

// Positions returns the session's positions in ballot order.
func (s *Session) Positions() []v1.Position {
	ps := make([]v1.Position, len(s.positions))
	copy(ps, s.positions)
	return ps
}

// Progress returns how many positions have a choice and how many positions
// the ballot has in total.
func (s *Session) Progress() (int, int) {
	return len(s.choices), len(s.positions)
}

// Complete returns whether every position has a choice.
func (s *Session) Complete() bool {
	return len(s.choices) == len(s.positions)
}

// SubmitChoice records the voter's choice for the current position and
// advances to the next one.
func (s *Session) SubmitChoice(c Choice) error {
	if s.finalized {
		return ErrFinalized
	}
	if s.Complete() {
		return ErrComplete
	}
	if !c.valid() {
		return ErrInvalidChoice
	}
	p := s.positions[s.cursor]
	s.choices[p.ID] = c
	s.cursor++

	log.Debugf("Ballot %v: choice for position %v (%v/%v)",
		s.ElectionID, p.ID, len(s.choices), len(s.positions))

	return nil
}

// GoBack moves the cursor to the previous position and discards the choice
// that was recorded for it. The voter decides that position again; a stale
// choice must never survive a go back.
func (s *Session) GoBack() error {
	if s.finalized {
		return ErrFinalized
	}
	if s.cursor == 0 {
		return ErrAtFirstPosition
	}
	s.cursor--
	p := s.positions[s.cursor]
	delete(s.choices, p.ID)

	log.Debugf("Ballot %v: went back to position %v",
		s.ElectionID, p.ID)

	return nil
}

// Choice returns the recorded choice for the given position ID.
func (s *Session) Choice(positionID int64) (Choice, bool) {
	c, ok := s.choices[positionID]
	return c, ok
}

// Finalize assembles the completed ballot into the authority's wire format,
// in ballot order, and freezes the session. It fails if any position is
// still undecided.
func (s *Session) Finalize() ([]v1.VoteEntry, error) {
	if !s.Complete() {
		return nil, errors.Wrapf(ErrIncomplete, "%v of %v positions",
			len(s.choices), len(s.positions))
	}
	s.finalized = true
	entries := make([]v1.VoteEntry, 0, len(s.positions))
	for _, p := range s.positions {
		c := s.choices[p.ID]
		e := v1.VoteEntry{
			PositionID:  p.ID,
			IsBlankVote: c.Blank,
			IsNullVote:  c.Null,
		}
		if c.CandidateID != 0 {
			id := c.CandidateID
			e.CandidateID = &id
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// sessionJSON is the serialization form of a Session. Sessions are parked
// in the voter's server side session between requests.
type sessionJSON struct {
	ElectionID int64            `json:"electionid"`
	Positions  []v1.Position    `json:"positions"`
	Choices    map[int64]Choice `json:"choices"`
	Cursor     int              `json:"cursor"`
	Finalized  bool             `json:"finalized"`
}

// MarshalJSON satisfies the json.Marshaler interface.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		ElectionID: s.ElectionID,
		Positions:  s.positions,
		Choices:    s.choices,
		Cursor:     s.cursor,
		Finalized:  s.finalized,
	})
}

// UnmarshalJSON satisfies the json.Unmarshaler interface.
func (s *Session) UnmarshalJSON(b []byte) error {
	var sj sessionJSON
	if err := json.Unmarshal(b, &sj); err != nil {
		return err
	}
	s.ElectionID = sj.ElectionID
	s.positions = sj.Positions
	s.choices = sj.Choices
	s.cursor = sj.Cursor
	s.finalized = sj.Finalized
	if s.choices == nil {
		s.choices = make(map[int64]Choice, len(s.positions))
	}
	return nil
}
