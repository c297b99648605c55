// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"context"
	"errors"

	"github.com/votehom/votehom/auditlog"
	"github.com/votehom/votehom/authority"
	v1 "github.com/votehom/votehom/authority/v1"
)

// SubmitVote submits a single position vote. Elections that require the
// multi position route are rejected before anything reaches the authority;
// a partial ballot must never be castable through the single route.
func (s *Service) SubmitVote(ctx context.Context, v *Voter, cv v1.CastVote) (*v1.Receipt, error) {
	multi, err := s.CheckMultiplePositions(ctx, v.ElectionID)
	if err != nil {
		log.Debugf("Multiple positions probe failed: %v", err)
	} else if multi {
		return nil, ErrMultipleRequired
	}

	cv.ElectionID = v.ElectionID
	return s.cast(ctx, v, func(token string) (*v1.Receipt, error) {
		return s.client.CastVote(ctx, token, cv)
	})
}

// SubmitVotes submits a full multi position ballot. The vote set is run
// through the authority's validation first; a negative result aborts the
// submission before any vote is cast.
func (s *Service) SubmitVotes(ctx context.Context, v *Voter, votes []v1.VoteEntry) (*v1.Receipt, error) {
	vv, err := s.client.ValidateVotes(ctx, v.ElectionID, votes)
	if err != nil {
		// The validation endpoint being down is not a verdict on the
		// ballot.
		log.Debugf("Vote set validation unavailable: %v", err)
	} else if vv.Result != v1.ValidationResultValid {
		log.Warnf("Vote set validation negative for election %v: %v",
			v.ElectionID, vv.Message)
		return nil, ErrValidation
	}

	cv := v1.CastVotes{
		ElectionID: v.ElectionID,
		Votes:      votes,
	}
	return s.cast(ctx, v, func(token string) (*v1.Receipt, error) {
		return s.client.CastVotes(ctx, token, cv)
	})
}

// cast drives a vote submission through the refresh retry, the sealed
// election workaround and the audit append. The castFn is the only part
// that differs between the single and multi position routes.
func (s *Service) cast(ctx context.Context, v *Voter, castFn func(token string) (*v1.Receipt, error)) (*v1.Receipt, error) {
	var receipt *v1.Receipt
	err := s.withFreshToken(ctx, v, func(token string) error {
		r, err := castFn(token)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})

	resealed := false
	if err != nil && authority.IsSealed(err) && s.cfg.SealedWorkaround {
		receipt, err = s.castSealed(ctx, v, castFn, err)
		resealed = err == nil
	}
	if err != nil {
		var re authority.RespError
		if errors.As(err, &re) {
			return nil, SubmitError{
				HTTPCode: re.HTTPCode,
				Message:  re.Message,
			}
		}
		return nil, err
	}

	s.appendAudit(ctx, v.VoterID, receipt, resealed)

	return receipt, nil
}

// castSealed performs the unseal/vote/reseal compensation. The election is
// set active with an admin token, the vote is retried, and the election is
// sealed back to completed no matter how the retry went. A failed reseal is
// logged loudly but does not turn a recorded vote into an error; a failed
// workaround surfaces the original sealed rejection, not its own plumbing.
func (s *Service) castSealed(ctx context.Context, v *Voter, castFn func(token string) (*v1.Receipt, error), sealedErr error) (*v1.Receipt, error) {
	log.Infof("Election %v is sealed, attempting the reseal "+
		"compensation", v.ElectionID)

	lr, err := s.client.AdminLogin(ctx, s.cfg.AdminEmail,
		s.cfg.AdminPassword)
	if err != nil {
		log.Errorf("Reseal compensation: admin login failed: %v", err)
		return nil, sealedErr
	}
	adminToken := lr.Token

	err = s.client.SetElectionStatus(ctx, adminToken, v.ElectionID,
		v1.ElectionStatusActive)
	if err != nil {
		log.Errorf("Reseal compensation: unseal failed: %v", err)
		return nil, sealedErr
	}

	// The election is open from here on. Sealing it back must happen on
	// every path out of this function.
	defer func() {
		err := s.client.SetElectionStatus(ctx, adminToken,
			v.ElectionID, v1.ElectionStatusCompleted)
		if err != nil {
			log.Errorf("Reseal compensation: election %v was NOT "+
				"sealed back: %v", v.ElectionID, err)
			return
		}
		log.Infof("Election %v sealed back", v.ElectionID)
	}()

	var receipt *v1.Receipt
	err = s.withFreshToken(ctx, v, func(token string) error {
		r, err := castFn(token)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		log.Errorf("Reseal compensation: retry failed: %v", err)
		return nil, sealedErr
	}

	return receipt, nil
}

// appendAudit records an accepted submission in the audit trail. The entry
// is derived from the authority's receipt, never from the local ballot
// state. An append failure cannot retract a vote the authority has already
// recorded, so it is logged and the receipt is still returned.
func (s *Service) appendAudit(ctx context.Context, voterID string, r *v1.Receipt, resealed bool) {
	e := auditlog.NewEntry(voterID, *r, resealed)
	if err := s.audit.Append(ctx, e); err != nil {
		log.Errorf("Audit append failed for receipt %v: %v",
			r.ReceiptToken, err)
		return
	}
	log.Debugf("Audit entry %v recorded for receipt %v",
		e.ID, r.ReceiptToken)
}
