// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package v1 contains the wire types for the election authority's HTTP API.
// The authority is an external system; these types mirror what it actually
// sends and accepts, not what this portal would have designed.
package v1

import "encoding/json"

type ElectionStatusT string

const (
	// Routes. Routes that contain a %v take the corresponding path
	// parameter (election ID, position ID, candidate ID or receipt
	// token).
	RouteLogin             = "/api/voting/login"
	RouteAdminLogin        = "/api/auth/admin/login"
	RouteActiveElections   = "/api/election/active"
	RouteElectionDetail    = "/api/election/%v"
	RouteElectionStatus    = "/api/election/%v/status"
	RouteElectionValidate  = "/api/voting-portal/elections/%v/validate"
	RoutePortalCandidates  = "/api/voting-portal/elections/%v/candidates"
	RoutePositionCandidate = "/api/voting-portal/positions/%v/candidates"
	RouteVoterStatus       = "/api/voting/election/%v/status"
	RoutePositions         = "/api/position/election/%v"
	RouteCandidates        = "/api/candidate/position/%v"
	RouteCandidatePhoto    = "/api/candidate/%v/photo"
	RouteCastVote          = "/api/voting/cast-vote"
	RouteCastVotes         = "/api/voting/cast-multiple-votes"
	RouteCanVote           = "/api/voting/can-vote/%v"
	RouteHasVoted          = "/api/voting/has-voted/%v"
	RouteReceipt           = "/api/voting/receipt/%v"
	RouteMultiplePositions = "/api/voting-test/election/%v/multiple-positions"
	RouteValidateVotes     = "/api/voting-test/election/%v/validate-votes"
	RouteSystemIntegrity   = "/api/voting-test/election/%v/system-integrity"
	RouteForgotPassword    = "/api/voter/forgot-password"
	RouteResetPassword     = "/api/voter/reset-password-with-token"

	// Election status values as reported by the authority.
	ElectionStatusDraft     ElectionStatusT = "draft"
	ElectionStatusActive    ElectionStatusT = "active"
	ElectionStatusCompleted ElectionStatusT = "completed"
	ElectionStatusCancelled ElectionStatusT = "cancelled"

	// Voting methods returned by the multiple positions probe.
	VotingMethodSingle   = "cast-vote"
	VotingMethodMultiple = "cast-multiple-votes"

	// ValidationResultValid is the value of VotesValidation.Result when
	// the authority accepts a ballot. The authority reports this value
	// in its own locale.
	ValidationResultValid = "VÁLIDO"
)

// Response is the envelope the authority wraps every reply in. Data is a raw
// JSON message so that the caller can decode it into the route specific
// reply type after checking Success.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Login is the request body for RouteLogin.
type Login struct {
	VoterID    string `json:"cpf"`
	Password   string `json:"password"`
	ElectionID int64  `json:"electionId"`
}

// LoginReply is the reply body for RouteLogin and RouteAdminLogin.
type LoginReply struct {
	Token         string `json:"token"`
	VoterID       int64  `json:"voterId"`
	VoterName     string `json:"voterName"`
	ElectionID    int64  `json:"electionId"`
	ElectionTitle string `json:"electionTitle"`
}

// AdminLogin is the request body for RouteAdminLogin.
type AdminLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ElectionSummary is a single entry of the RouteActiveElections reply.
type ElectionSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// ElectionDetail is the reply body for RouteElectionDetail. The date fields
// are raw strings; the authority is known to emit malformed timezone
// offsets that must be repaired before parsing.
type ElectionDetail struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       ElectionStatusT `json:"status"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate"`
	Timezone     string          `json:"timezone"`
	AllowBlank   bool            `json:"allowBlankVotes"`
	AllowNull    bool            `json:"allowNullVotes"`
	VotingMethod string          `json:"votingMethod"`
	CompanyName  string          `json:"companyName"`
}

// ElectionValidation is the reply body for RouteElectionValidate.
type ElectionValidation struct {
	IsValid           bool            `json:"isValid"`
	IsSealed          bool            `json:"isSealed"`
	IsActive          bool            `json:"isActive"`
	IsInVotingPeriod  bool            `json:"isInVotingPeriod"`
	CanVote           bool            `json:"canVote"`
	Status            ElectionStatusT `json:"status"`
	StartDate         string          `json:"startDate"`
	EndDate           string          `json:"endDate"`
	ValidationMessage string          `json:"validationMessage"`
	ValidationErrors  []string        `json:"validationErrors"`
}

// VoterElectionStatus is the reply body for RouteVoterStatus. It requires a
// voter token.
type VoterElectionStatus struct {
	ElectionID int64           `json:"electionId"`
	Title      string          `json:"title"`
	Status     ElectionStatusT `json:"status"`
	StartDate  string          `json:"startDate"`
	EndDate    string          `json:"endDate"`
	IsSealed   bool            `json:"isSealed"`
	CanVote    bool            `json:"canVote"`
	Message    string          `json:"message"`
}

// Position is a single entry of the RoutePositions reply.
type Position struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	MaxVotes      int    `json:"maxVotesPerVoter"`
	OrderPosition int    `json:"orderPosition"`
	ElectionID    int64  `json:"electionId"`
	IsActive      bool   `json:"isActive"`
}

// Candidate is a single entry of the RouteCandidates and
// RoutePositionCandidate replies.
type Candidate struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Number      string `json:"number"`
	Party       string `json:"party"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl"`
	PositionID  int64  `json:"positionId"`
}

// PortalElection is the reply body for RoutePortalCandidates. It bundles
// positions with their candidates in a single reply.
type PortalElection struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Positions []PortalPosition `json:"positions"`
}

// PortalPosition is a position with embedded candidates as returned by
// RoutePortalCandidates.
type PortalPosition struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	MaxVotes      int         `json:"maxVotes"`
	OrderPosition int         `json:"orderPosition"`
	Candidates    []Candidate `json:"candidates"`
}

// CandidatePhoto is the reply body for RouteCandidatePhoto. PhotoURL holds
// either an external URL or, when the photo is blob stored, a base64 data
// URL.
type CandidatePhoto struct {
	PhotoURL    string `json:"photoUrl"`
	HasPhoto    bool   `json:"hasPhoto"`
	StorageType string `json:"storageType"`
	MimeType    string `json:"mimeType"`
}

// CastVote is the request body for RouteCastVote.
type CastVote struct {
	ElectionID    int64   `json:"electionId"`
	PositionID    int64   `json:"positionId"`
	CandidateID   *int64  `json:"candidateId"`
	IsBlankVote   bool    `json:"isBlankVote"`
	IsNullVote    bool    `json:"isNullVote"`
	Justification *string `json:"justification"`
}

// VoteEntry is a single position vote inside a CastVotes request.
type VoteEntry struct {
	PositionID  int64  `json:"positionId"`
	CandidateID *int64 `json:"candidateId"`
	IsBlankVote bool   `json:"isBlankVote"`
	IsNullVote  bool   `json:"isNullVote"`
}

// CastVotes is the request body for RouteCastVotes.
type CastVotes struct {
	ElectionID    int64       `json:"electionId"`
	Votes         []VoteEntry `json:"votes"`
	Justification *string     `json:"justification"`
}

// VoteDetail is a per position line item of a Receipt.
type VoteDetail struct {
	PositionName    string `json:"positionName"`
	CandidateName   string `json:"candidateName"`
	CandidateNumber string `json:"candidateNumber"`
	IsBlankVote     bool   `json:"isBlankVote"`
	IsNullVote      bool   `json:"isNullVote"`
}

// Receipt is the reply body for RouteCastVote, RouteCastVotes and
// RouteReceipt. It is issued by the authority and treated as authoritative;
// this portal never recomputes any of its fields.
type Receipt struct {
	ReceiptToken  string       `json:"receiptToken"`
	VoteHash      string       `json:"voteHash"`
	VotedAt       string       `json:"votedAt"`
	ElectionID    int64        `json:"electionId"`
	ElectionTitle string       `json:"electionTitle"`
	VoterName     string       `json:"voterName"`
	VoteDetails   []VoteDetail `json:"voteDetails"`
}

// MultiplePositions is the reply body for RouteMultiplePositions.
type MultiplePositions struct {
	ElectionID     int64  `json:"electionId"`
	HasMultiple    bool   `json:"hasMultiplePositions"`
	RequiredMethod string `json:"requiredVotingMethod"`
	Message        string `json:"message"`
}

// VotesValidation is the reply body for RouteValidateVotes.
type VotesValidation struct {
	ElectionID int64  `json:"electionId"`
	Result     string `json:"validationResult"`
	Message    string `json:"validationMessage"`
}

// SystemIntegrity is the reply body for RouteSystemIntegrity.
type SystemIntegrity struct {
	ElectionID    int64  `json:"electionId"`
	OverallStatus string `json:"overallStatus"`
	TestedAt      string `json:"testedAt"`
}

// SetElectionStatus is the request body for the administrative status change
// (PATCH RouteElectionStatus). It requires an admin token.
type SetElectionStatus struct {
	Status ElectionStatusT `json:"status"`
}

// ForgotPassword is the request body for RouteForgotPassword.
type ForgotPassword struct {
	Email string `json:"email"`
}

// ResetPassword is the request body for RouteResetPassword.
type ResetPassword struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
