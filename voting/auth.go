// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"context"
	"errors"
	"strings"

	"github.com/votehom/votehom/authority"
)

// Voter is an authenticated voter session. The credentials are retained so
// that an expired token can be refreshed without voter interaction; they
// stay server side and are never serialized into anything voter visible.
type Voter struct {
	VoterID    string `json:"-"`
	Password   string `json:"-"`
	ElectionID int64  `json:"electionid"`
	Token      string `json:"-"`
	Name       string `json:"name"`
}

// loginErrorSubstrings maps authority rejection message fragments to login
// error codes. This table is the ONLY place authority login vocabulary is
// interpreted; when the authority's wording changes, this table changes and
// nothing else does. Matching is case insensitive and covers the two
// locales the authority is deployed in. Order matters: earlier rows win.
var loginErrorSubstrings = []struct {
	fragment string
	code     LoginErrorCode
}{
	{"cpf não encontrado", LoginErrorInvalidVoterID},
	{"cpf not found", LoginErrorInvalidVoterID},
	{"eleitor não encontrado", LoginErrorInvalidVoterID},
	{"voter not found", LoginErrorInvalidVoterID},
	{"senha incorreta", LoginErrorWrongPassword},
	{"senha inválida", LoginErrorWrongPassword},
	{"incorrect password", LoginErrorWrongPassword},
	{"invalid password", LoginErrorWrongPassword},
	{"não iniciada", LoginErrorElectionNotStarted},
	{"not started", LoginErrorElectionNotStarted},
	{"encerrada", LoginErrorElectionEnded},
	{"has ended", LoginErrorElectionEnded},
	{"não está disponível", LoginErrorElectionUnavailable},
	{"not available", LoginErrorElectionUnavailable},
	{"inativo", LoginErrorVoterInactive},
	{"inactive", LoginErrorVoterInactive},
	{"já votou", LoginErrorAlreadyVoted},
	{"already voted", LoginErrorAlreadyVoted},
}

// classifyLoginError maps an authority rejection to the closed login error
// code set. Unrecognized messages classify as a server error; the raw
// message is logged here and goes no further.
func classifyLoginError(message string) LoginErrorCode {
	m := strings.ToLower(message)
	for _, row := range loginErrorSubstrings {
		if strings.Contains(m, row.fragment) {
			return row.code
		}
	}
	log.Debugf("Login rejection did not classify: %q", message)
	return LoginErrorServer
}

// Login authenticates a voter against the authority for the given
// election. Authority rejections come back as a LoginError with a code
// from the closed set; transport failures are returned as-is.
//
// An election-ended rejection is double checked against the voting window
// the resolver derives independently. When the window says the election is
// still open, ErrClockSkew is returned instead, so a skewed authority clock
// does not read as "voting is over" to a voter standing inside the window.
func (s *Service) Login(ctx context.Context, voterID, password string, electionID int64) (*Voter, error) {
	lr, err := s.client.Login(ctx, voterID, password, electionID)
	if err != nil {
		var re authority.RespError
		if !errors.As(err, &re) {
			// Transport failure, not a rejection.
			return nil, err
		}
		code := classifyLoginError(re.Message)
		if code == LoginErrorElectionEnded && s.windowStillOpen(ctx, electionID) {
			log.Warnf("Authority says election %v ended but its "+
				"window is still open", electionID)
			return nil, ErrClockSkew
		}
		return nil, LoginError{Code: code}
	}

	log.Debugf("Voter %v logged in to election %v", lr.VoterID, electionID)

	return &Voter{
		VoterID:    voterID,
		Password:   password,
		ElectionID: electionID,
		Token:      lr.Token,
		Name:       lr.VoterName,
	}, nil
}

// windowStillOpen re-derives the election's voting window and reports
// whether the portal clock is still inside it. Derivation failures count as
// not-open so the guard never overrides the authority on bad data.
func (s *Service) windowStillOpen(ctx context.Context, electionID int64) bool {
	ev, err := s.client.ElectionValidate(ctx, electionID)
	if err != nil {
		log.Debugf("Clock skew check: validate failed: %v", err)
		return false
	}
	_, end := parseWindow(electionID, ev.StartDate, ev.EndDate)
	if end.IsZero() {
		return false
	}
	return s.now().Before(end)
}

// withFreshToken runs fn with the voter's token, and on an authorization
// failure re-logs the voter in once with the retained credentials and runs
// fn once more. The second outcome, good or bad, is the final one. Any
// error other than an authorization failure passes straight through.
func (s *Service) withFreshToken(ctx context.Context, v *Voter, fn func(token string) error) error {
	err := fn(v.Token)
	if !authority.IsAuthorization(err) {
		return err
	}

	log.Debugf("Token expired for voter in election %v, refreshing",
		v.ElectionID)

	lr, lerr := s.client.Login(ctx, v.VoterID, v.Password, v.ElectionID)
	if lerr != nil {
		log.Debugf("Token refresh failed: %v", lerr)
		var re authority.RespError
		if errors.As(lerr, &re) {
			return LoginError{Code: classifyLoginError(re.Message)}
		}
		return lerr
	}
	v.Token = lr.Token

	return fn(v.Token)
}
