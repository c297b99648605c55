// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"errors"
	"fmt"
)

var (
	// ErrNoElection is returned when every discovery strategy has been
	// exhausted without finding a votable election.
	ErrNoElection = errors.New("no votable election found")

	// ErrClockSkew is returned when the authority rejected a login as
	// election-ended but an independent check of the voting window says
	// the election is still open. The authority clock and the portal
	// clock disagree; the voter should not be told the election ended.
	ErrClockSkew = errors.New("authority reports election ended but " +
		"the voting window is still open")

	// ErrValidation is returned when the pre-submission vote set
	// validation reports a negative result.
	ErrValidation = errors.New("vote set failed validation")

	// ErrMultipleRequired is returned when a single position submission
	// is attempted against an election that requires the multi position
	// ballot route.
	ErrMultipleRequired = errors.New("election requires the multi " +
		"position ballot")
)

// LoginErrorCode classifies a rejected login. The set is closed; anything
// the authority says that does not classify falls back to
// LoginErrorServer.
type LoginErrorCode int

const (
	LoginErrorInvalid LoginErrorCode = 0

	LoginErrorInvalidVoterID      LoginErrorCode = 1
	LoginErrorWrongPassword       LoginErrorCode = 2
	LoginErrorElectionNotStarted  LoginErrorCode = 3
	LoginErrorElectionEnded       LoginErrorCode = 4
	LoginErrorElectionUnavailable LoginErrorCode = 5
	LoginErrorVoterInactive       LoginErrorCode = 6
	LoginErrorAlreadyVoted        LoginErrorCode = 7
	LoginErrorServer              LoginErrorCode = 8
)

// LoginErrorMessages are the voter facing messages for each login error
// code. Raw authority messages never reach the voter.
var LoginErrorMessages = map[LoginErrorCode]string{
	LoginErrorInvalid:             "invalid login error",
	LoginErrorInvalidVoterID:      "voter ID not found for this election",
	LoginErrorWrongPassword:       "incorrect password",
	LoginErrorElectionNotStarted:  "voting has not started yet",
	LoginErrorElectionEnded:       "voting has ended",
	LoginErrorElectionUnavailable: "election is not available for voting",
	LoginErrorVoterInactive:       "voter is not active in this election",
	LoginErrorAlreadyVoted:        "voter has already voted",
	LoginErrorServer:              "could not sign in, try again later",
}

// LoginError is returned when the authority rejects a login.
type LoginError struct {
	Code LoginErrorCode
}

// Error satisfies the error interface.
func (e LoginError) Error() string {
	return fmt.Sprintf("login error code %v: %v",
		e.Code, LoginErrorMessages[e.Code])
}

// SubmitError is returned when the authority rejects a vote submission for
// a business reason that submission could not compensate for.
type SubmitError struct {
	HTTPCode int
	Message  string
}

// Error satisfies the error interface.
func (e SubmitError) Error() string {
	return fmt.Sprintf("submit error: %v %v", e.HTTPCode, e.Message)
}
