// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package v1 contains the wire types for the votehomwww API.
package v1

type ErrorStatusT int

const (
	APIVersion = 1

	// APIRoute is the prefix of all votehomwww API routes.
	APIRoute = "/v1"

	// CsrfToken is the HTTP header that carries the CSRF token. The
	// token is handed out by the version route and must accompany every
	// state changing request.
	CsrfToken = "X-CSRF-Token"

	// Routes
	RouteVersion         = "/version"
	RouteStatus          = "/status"
	RouteLogin           = "/login"
	RouteLogout          = "/logout"
	RouteBallot          = "/ballot"
	RouteBallotChoice    = "/ballot/choice"
	RouteBallotBack      = "/ballot/back"
	RouteBallotSubmit    = "/ballot/submit"
	RouteReceipt         = "/receipt/{token}"
	RouteHistory         = "/history"
	RouteCandidatePhoto  = "/candidate/{id:[0-9]+}/photo"
	RouteResetRequest    = "/password/reset/request"
	RouteResetPassword   = "/password/reset"
	RouteSystemIntegrity = "/integrity"

	// Error statuses
	ErrorStatusInvalid              ErrorStatusT = 0
	ErrorStatusInvalidInput         ErrorStatusT = 1
	ErrorStatusNotLoggedIn          ErrorStatusT = 2
	ErrorStatusNoElection           ErrorStatusT = 3
	ErrorStatusLoginFailed          ErrorStatusT = 4
	ErrorStatusClockSkew            ErrorStatusT = 5
	ErrorStatusNoBallot             ErrorStatusT = 6
	ErrorStatusBallotIncomplete     ErrorStatusT = 7
	ErrorStatusBallotFinalized      ErrorStatusT = 8
	ErrorStatusAlreadyVoted         ErrorStatusT = 9
	ErrorStatusSubmitRejected       ErrorStatusT = 10
	ErrorStatusAuthorityUnreachable ErrorStatusT = 11

	// Forward is the HTTP header used to pass the real client address
	// through a reverse proxy.
	Forward = "X-Forwarded-For"
)

// ErrorStatus contains human readable error statuses.
var ErrorStatus = map[ErrorStatusT]string{
	ErrorStatusInvalid:              "invalid error status",
	ErrorStatusInvalidInput:         "invalid input",
	ErrorStatusNotLoggedIn:          "user not logged in",
	ErrorStatusNoElection:           "no votable election",
	ErrorStatusLoginFailed:          "login failed",
	ErrorStatusClockSkew:            "voting window disagreement",
	ErrorStatusNoBallot:             "no ballot in progress",
	ErrorStatusBallotIncomplete:     "ballot incomplete",
	ErrorStatusBallotFinalized:      "ballot already finalized",
	ErrorStatusAlreadyVoted:         "voter has already voted",
	ErrorStatusSubmitRejected:       "vote submission rejected",
	ErrorStatusAuthorityUnreachable: "election authority unreachable",
}

// ErrorReply are replies that the server returns when an HTTP status code
// other than 200 is returned. ErrorContext holds a sanitized, voter facing
// message; raw authority text never appears here.
type ErrorReply struct {
	ErrorCode    int64  `json:"errorcode,omitempty"`
	ErrorContext string `json:"errorcontext,omitempty"`
}

// VersionReply is the reply to the Version command. Fetching it also sets
// the CSRF token header.
type VersionReply struct {
	Version      int    `json:"version"`
	Route        string `json:"route"`
	BuildVersion string `json:"buildversion"`
}

// Election describes the resolved election as shown to voters.
type Election struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	StartDate   int64  `json:"startdate,omitempty"` // Unix time
	EndDate     int64  `json:"enddate,omitempty"`   // Unix time
	Sealed      bool   `json:"sealed"`
	AllowBlank  bool   `json:"allowblank"`
	AllowNull   bool   `json:"allownull"`
}

// StatusReply is the reply to the Status command.
type StatusReply struct {
	Election *Election `json:"election"`
	Expired  bool      `json:"expired"`
}

// Login is the login command. The election is resolved server side.
type Login struct {
	VoterID  string `json:"voterid"`
	Password string `json:"password"`
}

// LoginReply is the reply to the Login command.
type LoginReply struct {
	Name          string `json:"name"`
	ElectionID    int64  `json:"electionid"`
	ElectionTitle string `json:"electiontitle"`
	HasVoted      bool   `json:"hasvoted"`
}

// Candidate describes a candidate as shown to voters.
type Candidate struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Party  string `json:"party,omitempty"`
}

// BallotPosition is the position currently being decided.
type BallotPosition struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	Candidates []Candidate `json:"candidates"`
}

// BallotReply describes the ballot state after any ballot command. When the
// ballot is complete Position is nil.
type BallotReply struct {
	Position *BallotPosition `json:"position,omitempty"`
	Decided  int             `json:"decided"`
	Total    int             `json:"total"`
	Complete bool            `json:"complete"`
}

// BallotChoice is the choice command for the current position. Exactly one
// of the fields must be set.
type BallotChoice struct {
	CandidateID int64 `json:"candidateid,omitempty"`
	Blank       bool  `json:"blank,omitempty"`
	Null        bool  `json:"null,omitempty"`
}

// VoteDetail is a per position line of a receipt.
type VoteDetail struct {
	Position        string `json:"position"`
	CandidateName   string `json:"candidatename,omitempty"`
	CandidateNumber string `json:"candidatenumber,omitempty"`
	Blank           bool   `json:"blank,omitempty"`
	Null            bool   `json:"null,omitempty"`
}

// Receipt is a vote receipt as shown to voters. All fields originate from
// the election authority.
type Receipt struct {
	Token         string       `json:"token"`
	VoteHash      string       `json:"votehash"`
	VotedAt       string       `json:"votedat"`
	ElectionTitle string       `json:"electiontitle"`
	Details       []VoteDetail `json:"details"`
}

// SubmitReply is the reply to the ballot submit command.
type SubmitReply struct {
	Receipt Receipt `json:"receipt"`
}

// HistoryEntry is a single local audit record of the logged in voter.
type HistoryEntry struct {
	RecordedAt    int64        `json:"recordedat"` // Unix time
	ElectionTitle string       `json:"electiontitle"`
	ReceiptToken  string       `json:"receipttoken"`
	Details       []VoteDetail `json:"details"`
}

// VoteHistory is the History command. The election ID is optional; it
// defaults to the election of the voter session.
type VoteHistory struct {
	ElectionID int64 `schema:"electionid"`
}

// HistoryReply is the reply to the History command.
type HistoryReply struct {
	Entries []HistoryEntry `json:"entries"`
}

// ResetRequest is the password reset request command.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetPassword is the password reset completion command.
type ResetPassword struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newpassword"`
	ConfirmPassword string `json:"confirmpassword"`
}
