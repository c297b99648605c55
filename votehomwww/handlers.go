// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/votehom/votehom/auditlog"
	"github.com/votehom/votehom/authority"
	v1 "github.com/votehom/votehom/authority/v1"
	"github.com/votehom/votehom/ballot"
	"github.com/votehom/votehom/util"
	www "github.com/votehom/votehom/votehomwww/api/v1"
	"github.com/votehom/votehom/voting"
)

// respondWithError replies with the passed error status. The context string
// is voter facing; raw authority text must never be passed in.
func respondWithError(w http.ResponseWriter, httpCode int, errCode www.ErrorStatusT, context string) {
	util.RespondWithJSON(w, httpCode, www.ErrorReply{
		ErrorCode:    int64(errCode),
		ErrorContext: context,
	})
}

// respondWithInternalError logs the error and replies with a 500. A
// transport failure reaching the authority is reported as a 502 with its
// own error status instead so the voter can tell an outage from a bug.
// Internal detail never reaches the voter.
func respondWithInternalError(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	if authority.IsUnreachable(err) {
		log.Errorf("%v %v: authority unreachable: %v",
			remoteAddr(r), prefix, err)
		respondWithError(w, http.StatusBadGateway,
			www.ErrorStatusAuthorityUnreachable,
			"the election authority could not be reached")
		return
	}
	log.Errorf("%v %v: %v", remoteAddr(r), prefix, err)
	if trace, ok := util.StackTrace(err); ok {
		log.Debugf("Stacktrace: %v", trace)
	}
	util.RespondWithJSON(w, http.StatusInternalServerError,
		www.ErrorReply{})
}

func convertElection(e *voting.Election) *www.Election {
	if e == nil {
		return nil
	}
	we := www.Election{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Status:      string(e.Status),
		Sealed:      e.Sealed,
		AllowBlank:  e.AllowBlank,
		AllowNull:   e.AllowNull,
	}
	if !e.StartDate.IsZero() {
		we.StartDate = e.StartDate.Unix()
	}
	if !e.EndDate.IsZero() {
		we.EndDate = e.EndDate.Unix()
	}
	return &we
}

func convertVoteDetails(details []v1.VoteDetail) []www.VoteDetail {
	out := make([]www.VoteDetail, 0, len(details))
	for _, d := range details {
		out = append(out, www.VoteDetail{
			Position:        d.PositionName,
			CandidateName:   d.CandidateName,
			CandidateNumber: d.CandidateNumber,
			Blank:           d.IsBlankVote,
			Null:            d.IsNullVote,
		})
	}
	return out
}

func convertReceipt(r *v1.Receipt) www.Receipt {
	return www.Receipt{
		Token:         r.ReceiptToken,
		VoteHash:      r.VoteHash,
		VotedAt:       r.VotedAt,
		ElectionTitle: r.ElectionTitle,
		Details:       convertVoteDetails(r.VoteDetails),
	}
}

// handleStatus returns the resolved election, if any. This is a public
// route so the login page can describe the election before authentication.
func (v *votehomwww) handleStatus(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleStatus")

	e, err := v.resolvedElection(r.Context())
	if err != nil {
		if errors.Is(err, voting.ErrNoElection) {
			respondWithError(w, http.StatusServiceUnavailable,
				www.ErrorStatusNoElection,
				"no election is currently available for voting")
			return
		}
		respondWithInternalError(w, r, "handleStatus: resolvedElection",
			err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, www.StatusReply{
		Election: convertElection(e),
		Expired:  v.voting.ElectionExpired(e),
	})
}

// handleLogin authenticates a voter against the election authority and
// creates the voter session.
func (v *votehomwww) handleLogin(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleLogin")

	var l www.Login
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&l); err != nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput, "")
		return
	}
	if l.VoterID == "" || l.Password == "" {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput,
			"voter ID and password are required")
		return
	}

	e, err := v.resolvedElection(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable,
			www.ErrorStatusNoElection,
			"no election is currently available for voting")
		return
	}

	voter, err := v.voting.Login(r.Context(), l.VoterID, l.Password, e.ID)
	if err != nil {
		var le voting.LoginError
		switch {
		case errors.As(err, &le):
			status := www.ErrorStatusLoginFailed
			if le.Code == voting.LoginErrorAlreadyVoted {
				status = www.ErrorStatusAlreadyVoted
			}
			respondWithError(w, http.StatusUnauthorized, status,
				voting.LoginErrorMessages[le.Code])
		case errors.Is(err, voting.ErrClockSkew):
			// The authority said the election ended but the
			// voting window is still open. Surface the
			// disagreement instead of a wrong "voting has ended".
			respondWithError(w, http.StatusConflict,
				www.ErrorStatusClockSkew,
				"the election clock is out of sync, try again "+
					"in a moment")
		default:
			respondWithInternalError(w, r, "handleLogin: Login", err)
		}
		return
	}

	err = v.saveSessionVoter(w, r, voter)
	if err != nil {
		respondWithInternalError(w, r, "handleLogin: saveSessionVoter",
			err)
		return
	}

	hasVoted, err := v.voting.HasVoted(r.Context(), voter)
	if err != nil {
		// Not fatal for login; the submit path enforces this server
		// side anyway.
		log.Warnf("handleLogin: HasVoted %v: %v",
			auditlog.MaskVoterID(voter.VoterID), err)
	}

	util.RespondWithJSON(w, http.StatusOK, www.LoginReply{
		Name:          voter.Name,
		ElectionID:    voter.ElectionID,
		ElectionTitle: e.Title,
		HasVoted:      hasVoted,
	})
}

// handleLogout deletes the voter session.
func (v *votehomwww) handleLogout(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleLogout")

	err := v.removeSession(w, r)
	if err != nil {
		respondWithInternalError(w, r, "handleLogout: removeSession",
			err)
		return
	}
	util.RespondWithJSON(w, http.StatusOK, struct{}{})
}

// ballotReply builds the ballot state reply for the passed session using
// the election slates for candidate listings.
func ballotReply(bs *ballot.Session, slates []voting.Slate) www.BallotReply {
	decided, total := bs.Progress()
	reply := www.BallotReply{
		Decided:  decided,
		Total:    total,
		Complete: bs.Complete(),
	}
	current, ok := bs.Current()
	if !ok {
		return reply
	}

	bp := www.BallotPosition{
		ID:    current.ID,
		Title: current.Title,
	}
	for _, s := range slates {
		if s.Position.ID != current.ID {
			continue
		}
		for _, c := range s.Candidates {
			bp.Candidates = append(bp.Candidates, www.Candidate{
				ID:     c.ID,
				Name:   c.Name,
				Number: c.Number,
				Party:  c.Party,
			})
		}
	}
	reply.Position = &bp
	return reply
}

// handleBallotStart starts a new ballot for the logged in voter. Any ballot
// already in progress is discarded.
func (v *votehomwww) handleBallotStart(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBallotStart")

	voter, err := v.sessionVoter(r)
	if err != nil {
		respondWithInternalError(w, r, "handleBallotStart: sessionVoter",
			err)
		return
	}

	// The local audit trail gates ballot entry alongside the authority
	// probe; a recorded receipt means this voter already voted even if
	// the probe is unreachable.
	history, err := v.voting.VoteHistory(r.Context(), voter.VoterID,
		voter.ElectionID)
	if err != nil {
		log.Warnf("handleBallotStart: VoteHistory: %v", err)
	} else if len(history) > 0 {
		respondWithError(w, http.StatusForbidden,
			www.ErrorStatusAlreadyVoted,
			voting.LoginErrorMessages[voting.LoginErrorAlreadyVoted])
		return
	}
	canVote, err := v.voting.CanVote(r.Context(), voter)
	if err != nil {
		log.Warnf("handleBallotStart: CanVote: %v", err)
	} else if !canVote {
		respondWithError(w, http.StatusForbidden,
			www.ErrorStatusAlreadyVoted,
			voting.LoginErrorMessages[voting.LoginErrorAlreadyVoted])
		return
	}

	slates, err := v.voting.Slates(r.Context(), voter.ElectionID)
	if err != nil {
		respondWithInternalError(w, r, "handleBallotStart: Slates", err)
		return
	}
	positions := make([]v1.Position, 0, len(slates))
	for _, s := range slates {
		positions = append(positions, s.Position)
	}

	bs, err := ballot.New(voter.ElectionID, positions)
	if err != nil {
		if errors.Is(err, ballot.ErrNoPositions) {
			respondWithError(w, http.StatusServiceUnavailable,
				www.ErrorStatusNoElection,
				"the election has no positions to vote on")
			return
		}
		respondWithInternalError(w, r, "handleBallotStart: ballot.New",
			err)
		return
	}

	// The CanVote probe may have refreshed the token.
	err = v.saveSessionVoter(w, r, voter)
	if err != nil {
		respondWithInternalError(w, r,
			"handleBallotStart: saveSessionVoter", err)
		return
	}
	err = v.saveSessionBallot(w, r, bs)
	if err != nil {
		respondWithInternalError(w, r,
			"handleBallotStart: saveSessionBallot", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, ballotReply(bs, slates))
}

// handleBallot returns the state of the ballot in progress.
func (v *votehomwww) handleBallot(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBallot")

	voter, bs, ok := v.requireBallot(w, r)
	if !ok {
		return
	}

	slates, err := v.voting.Slates(r.Context(), voter.ElectionID)
	if err != nil {
		respondWithInternalError(w, r, "handleBallot: Slates", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, ballotReply(bs, slates))
}

// requireBallot loads the voter and the parked ballot, replying with an
// error when no ballot is in progress.
func (v *votehomwww) requireBallot(w http.ResponseWriter, r *http.Request) (*voting.Voter, *ballot.Session, bool) {
	voter, err := v.sessionVoter(r)
	if err != nil {
		respondWithInternalError(w, r, "requireBallot: sessionVoter",
			err)
		return nil, nil, false
	}
	bs, err := v.sessionBallot(r)
	if err != nil {
		respondWithInternalError(w, r, "requireBallot: sessionBallot",
			err)
		return nil, nil, false
	}
	if bs == nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusNoBallot, "start a ballot first")
		return nil, nil, false
	}
	return voter, bs, true
}

// handleBallotChoice records the choice for the current position and
// advances the ballot.
func (v *votehomwww) handleBallotChoice(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBallotChoice")

	var bc www.BallotChoice
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&bc); err != nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput, "")
		return
	}

	voter, bs, ok := v.requireBallot(w, r)
	if !ok {
		return
	}

	slates, err := v.voting.Slates(r.Context(), voter.ElectionID)
	if err != nil {
		respondWithInternalError(w, r, "handleBallotChoice: Slates", err)
		return
	}

	// A candidate choice must name a candidate of the position being
	// decided.
	if bc.CandidateID != 0 {
		current, ok := bs.Current()
		if !ok {
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusBallotFinalized, "")
			return
		}
		if !slateHasCandidate(slates, current.ID, bc.CandidateID) {
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusInvalidInput,
				"candidate does not run for this position")
			return
		}
	}

	err = bs.SubmitChoice(ballot.Choice{
		CandidateID: bc.CandidateID,
		Blank:       bc.Blank,
		Null:        bc.Null,
	})
	if err != nil {
		switch {
		case errors.Is(err, ballot.ErrInvalidChoice):
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusInvalidInput,
				"choose exactly one of candidate, blank or null")
		case errors.Is(err, ballot.ErrComplete):
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusBallotIncomplete,
				"all positions have been decided")
		case errors.Is(err, ballot.ErrFinalized):
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusBallotFinalized, "")
		default:
			respondWithInternalError(w, r,
				"handleBallotChoice: SubmitChoice", err)
		}
		return
	}

	err = v.saveSessionBallot(w, r, bs)
	if err != nil {
		respondWithInternalError(w, r,
			"handleBallotChoice: saveSessionBallot", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, ballotReply(bs, slates))
}

func slateHasCandidate(slates []voting.Slate, positionID, candidateID int64) bool {
	for _, s := range slates {
		if s.Position.ID != positionID {
			continue
		}
		for _, c := range s.Candidates {
			if c.ID == candidateID {
				return true
			}
		}
	}
	return false
}

// handleBallotBack returns the ballot to the previous position, discarding
// the choice recorded for it.
func (v *votehomwww) handleBallotBack(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBallotBack")

	voter, bs, ok := v.requireBallot(w, r)
	if !ok {
		return
	}

	err := bs.GoBack()
	if err != nil {
		switch {
		case errors.Is(err, ballot.ErrAtFirstPosition):
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusInvalidInput,
				"already at the first position")
		case errors.Is(err, ballot.ErrFinalized):
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusBallotFinalized, "")
		default:
			respondWithInternalError(w, r,
				"handleBallotBack: GoBack", err)
		}
		return
	}

	err = v.saveSessionBallot(w, r, bs)
	if err != nil {
		respondWithInternalError(w, r,
			"handleBallotBack: saveSessionBallot", err)
		return
	}

	slates, err := v.voting.Slates(r.Context(), voter.ElectionID)
	if err != nil {
		respondWithInternalError(w, r, "handleBallotBack: Slates", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, ballotReply(bs, slates))
}

// handleBallotSubmit finalizes the ballot and casts it with the election
// authority. On success the parked ballot is cleared and the authority
// receipt is returned.
func (v *votehomwww) handleBallotSubmit(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBallotSubmit")

	voter, bs, ok := v.requireBallot(w, r)
	if !ok {
		return
	}

	entries, err := bs.Finalize()
	if err != nil {
		if errors.Is(err, ballot.ErrIncomplete) {
			decided, total := bs.Progress()
			respondWithError(w, http.StatusBadRequest,
				www.ErrorStatusBallotIncomplete,
				"decided "+strconv.Itoa(decided)+" of "+
					strconv.Itoa(total)+" positions")
			return
		}
		respondWithInternalError(w, r, "handleBallotSubmit: Finalize",
			err)
		return
	}

	receipt, err := v.submitEntries(r.Context(), voter, entries)
	if err != nil {
		var se voting.SubmitError
		switch {
		case errors.As(err, &se):
			// The raw authority message is logged by the voting
			// layer; the voter gets a sanitized reply.
			respondWithError(w, http.StatusConflict,
				www.ErrorStatusSubmitRejected,
				"the election authority rejected the vote")
		case errors.Is(err, voting.ErrValidation):
			respondWithError(w, http.StatusConflict,
				www.ErrorStatusSubmitRejected,
				"the vote set failed validation")
		default:
			respondWithInternalError(w, r,
				"handleBallotSubmit: submit", err)
		}
		return
	}

	// The submission may have refreshed the token. Persist the voter and
	// clear the parked ballot in the same session write.
	err = v.saveSessionVoter(w, r, voter)
	if err != nil {
		respondWithInternalError(w, r,
			"handleBallotSubmit: saveSessionVoter", err)
		return
	}
	err = v.saveSessionBallot(w, r, nil)
	if err != nil {
		respondWithInternalError(w, r,
			"handleBallotSubmit: saveSessionBallot", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, www.SubmitReply{
		Receipt: convertReceipt(receipt),
	})
}

// submitEntries casts the finalized ballot, using the single position route
// when possible and falling back to the multi position route when the
// election requires it.
func (v *votehomwww) submitEntries(ctx context.Context, voter *voting.Voter, entries []v1.VoteEntry) (*v1.Receipt, error) {
	if len(entries) == 1 {
		receipt, err := v.voting.SubmitVote(ctx, voter, v1.CastVote{
			ElectionID:  voter.ElectionID,
			PositionID:  entries[0].PositionID,
			CandidateID: entries[0].CandidateID,
			IsBlankVote: entries[0].IsBlankVote,
			IsNullVote:  entries[0].IsNullVote,
		})
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, voting.ErrMultipleRequired) {
			return nil, err
		}
		// Fall through to the multi position route.
	}
	return v.voting.SubmitVotes(ctx, voter, entries)
}

// handleReceipt returns the authority receipt for the passed receipt token.
func (v *votehomwww) handleReceipt(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleReceipt")

	voter, err := v.sessionVoter(r)
	if err != nil {
		respondWithInternalError(w, r, "handleReceipt: sessionVoter",
			err)
		return
	}

	token := mux.Vars(r)["token"]
	receipt, err := v.voting.Receipt(r.Context(), voter, token)
	if err != nil {
		respondWithInternalError(w, r, "handleReceipt: Receipt", err)
		return
	}

	err = v.saveSessionVoter(w, r, voter)
	if err != nil {
		respondWithInternalError(w, r,
			"handleReceipt: saveSessionVoter", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, www.SubmitReply{
		Receipt: convertReceipt(receipt),
	})
}

// handleHistory returns the local audit records of the logged in voter.
func (v *votehomwww) handleHistory(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleHistory")

	voter, err := v.sessionVoter(r)
	if err != nil {
		respondWithInternalError(w, r, "handleHistory: sessionVoter",
			err)
		return
	}

	var vh www.VoteHistory
	err = util.ParseGetParams(r, &vh)
	if err != nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput, "")
		return
	}
	electionID := vh.ElectionID
	if electionID == 0 {
		electionID = voter.ElectionID
	}

	entries, err := v.voting.VoteHistory(r.Context(), voter.VoterID,
		electionID)
	if err != nil {
		respondWithInternalError(w, r, "handleHistory: VoteHistory",
			err)
		return
	}

	reply := www.HistoryReply{
		Entries: make([]www.HistoryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		details := make([]www.VoteDetail, 0, len(e.Votes))
		for _, vr := range e.Votes {
			details = append(details, www.VoteDetail{
				Position:        vr.PositionName,
				CandidateName:   vr.CandidateName,
				CandidateNumber: vr.CandidateNumber,
				Blank:           vr.BlankVote,
				Null:            vr.NullVote,
			})
		}
		reply.Entries = append(reply.Entries, www.HistoryEntry{
			RecordedAt:    e.Timestamp,
			ElectionTitle: e.ElectionTitle,
			ReceiptToken:  e.ReceiptToken,
			Details:       details,
		})
	}

	util.RespondWithJSON(w, http.StatusOK, reply)
}

// handleCandidatePhoto serves a candidate photo. Inline photo data is
// served directly; everything else redirects to the upstream URL.
func (v *votehomwww) handleCandidatePhoto(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleCandidatePhoto")

	candidateID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput, "")
		return
	}

	photo, err := v.voting.CandidatePhoto(r.Context(), candidateID)
	if err != nil {
		respondWithInternalError(w, r,
			"handleCandidatePhoto: CandidatePhoto", err)
		return
	}

	if len(photo.Data) > 0 {
		w.Header().Set("Content-Type", photo.MimeType)
		w.WriteHeader(http.StatusOK)
		w.Write(photo.Data)
		return
	}
	if photo.URL != "" {
		http.Redirect(w, r, photo.URL, http.StatusSeeOther)
		return
	}
	respondWithError(w, http.StatusNotFound,
		www.ErrorStatusInvalidInput, "candidate has no photo")
}

// handleResetRequest starts a password reset with the election authority.
func (v *votehomwww) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleResetRequest")

	var rr www.ResetRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&rr); err != nil || rr.Email == "" {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput, "")
		return
	}

	err := v.voting.RequestPasswordReset(r.Context(), rr.Email)
	if err != nil {
		// Deliberately indistinguishable from success so the route
		// cannot be used to probe for registered emails.
		log.Warnf("handleResetRequest: %v", err)
	}
	util.RespondWithJSON(w, http.StatusOK, struct{}{})
}

// handleResetPassword completes a password reset.
func (v *votehomwww) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleResetPassword")

	var rp www.ResetPassword
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&rp); err != nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput, "")
		return
	}
	if rp.Token == "" || rp.NewPassword == "" ||
		rp.NewPassword != rp.ConfirmPassword {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput,
			"passwords must match and the token must be set")
		return
	}

	err := v.voting.ResetPassword(r.Context(), rp.Token, rp.NewPassword,
		rp.ConfirmPassword)
	if err != nil {
		respondWithError(w, http.StatusBadRequest,
			www.ErrorStatusInvalidInput,
			"the reset token is invalid or expired")
		return
	}
	util.RespondWithJSON(w, http.StatusOK, struct{}{})
}

// handleSystemIntegrity proxies the authority system integrity check for
// the resolved election.
func (v *votehomwww) handleSystemIntegrity(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleSystemIntegrity")

	e, err := v.resolvedElection(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable,
			www.ErrorStatusNoElection, "")
		return
	}

	si, err := v.voting.SystemIntegrity(r.Context(), e.ID)
	if err != nil {
		respondWithInternalError(w, r,
			"handleSystemIntegrity: SystemIntegrity", err)
		return
	}
	util.RespondWithJSON(w, http.StatusOK, si)
}
