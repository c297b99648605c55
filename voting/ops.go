// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/votehom/votehom/auditlog"
	v1 "github.com/votehom/votehom/authority/v1"
)

// Slate is a position bundled with its candidates, in ballot order.
type Slate struct {
	Position   v1.Position
	Candidates []v1.Candidate
}

// Slates returns the election's positions with their candidates. The per
// position endpoints are tried first; when any of them fails, the bundled
// portal endpoint serves as the fallback so a partial outage does not show
// the voter half a ballot.
func (s *Service) Slates(ctx context.Context, electionID int64) ([]Slate, error) {
	ps, err := s.client.Positions(ctx, electionID)
	if err == nil {
		slates := make([]Slate, 0, len(ps))
		for _, p := range ps {
			cs, cerr := s.client.Candidates(ctx, p.ID)
			if cerr != nil {
				log.Debugf("Candidates for position %v "+
					"failed: %v", p.ID, cerr)
				err = cerr
				break
			}
			slates = append(slates, Slate{
				Position:   p,
				Candidates: cs,
			})
		}
		if err == nil {
			return slates, nil
		}
	}
	log.Debugf("Per position slates failed, using portal bundle: %v", err)

	pe, err := s.client.PortalCandidates(ctx, electionID)
	if err != nil {
		return nil, err
	}
	slates := make([]Slate, 0, len(pe.Positions))
	for _, pp := range pe.Positions {
		slates = append(slates, Slate{
			Position: v1.Position{
				ID:            pp.ID,
				Title:         pp.Name,
				Description:   pp.Description,
				MaxVotes:      pp.MaxVotes,
				OrderPosition: pp.OrderPosition,
				ElectionID:    electionID,
				IsActive:      true,
			},
			Candidates: pp.Candidates,
		})
	}
	return slates, nil
}

// Photo is a candidate photo resolved for serving. Exactly one of Data and
// URL is set: inline bytes for blob stored photos, a URL for external ones.
type Photo struct {
	Data     []byte
	MimeType string
	URL      string
}

// CandidatePhoto fetches and resolves a candidate's photo. Data URLs from
// the authority are decoded into inline bytes; anything else passes through
// as an external URL.
func (s *Service) CandidatePhoto(ctx context.Context, candidateID int64) (*Photo, error) {
	cp, err := s.client.CandidatePhoto(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if !cp.HasPhoto || cp.PhotoURL == "" {
		return &Photo{}, nil
	}
	if !strings.HasPrefix(cp.PhotoURL, "data:") {
		return &Photo{URL: cp.PhotoURL}, nil
	}

	// data:<mimetype>;base64,<payload>
	rest := strings.TrimPrefix(cp.PhotoURL, "data:")
	mimeType := cp.MimeType
	payload := rest
	if idx := strings.Index(rest, ","); idx != -1 {
		meta := rest[:idx]
		payload = rest[idx+1:]
		if mimeType == "" {
			mimeType = strings.TrimSuffix(meta, ";base64")
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Debugf("Candidate %v photo data URL did not decode: %v",
			candidateID, err)
		return &Photo{URL: cp.PhotoURL}, nil
	}
	return &Photo{
		Data:     data,
		MimeType: mimeType,
	}, nil
}

// CanVote reports whether the voter may vote in their election. The check
// rides the refresh retry like every other authenticated call.
func (s *Service) CanVote(ctx context.Context, v *Voter) (bool, error) {
	var canVote bool
	err := s.withFreshToken(ctx, v, func(token string) error {
		cv, err := s.client.CanVote(ctx, token, v.ElectionID)
		if err != nil {
			return err
		}
		canVote = cv
		return nil
	})
	return canVote, err
}

// HasVoted reports whether the voter has already voted in their election.
func (s *Service) HasVoted(ctx context.Context, v *Voter) (bool, error) {
	var hasVoted bool
	err := s.withFreshToken(ctx, v, func(token string) error {
		hv, err := s.client.HasVoted(ctx, token, v.ElectionID)
		if err != nil {
			return err
		}
		hasVoted = hv
		return nil
	})
	return hasVoted, err
}

// Receipt retrieves a vote receipt from the authority by its token.
func (s *Service) Receipt(ctx context.Context, v *Voter, receiptToken string) (*v1.Receipt, error) {
	var receipt *v1.Receipt
	err := s.withFreshToken(ctx, v, func(token string) error {
		r, err := s.client.Receipt(ctx, token, receiptToken)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	return receipt, err
}

// ValidateElection runs the portal validation probe for an election.
func (s *Service) ValidateElection(ctx context.Context, electionID int64) (*v1.ElectionValidation, error) {
	return s.client.ElectionValidate(ctx, electionID)
}

// CheckMultiplePositions reports whether an election requires the multi
// position ballot route. When the probe endpoint is unavailable the answer
// falls back to counting the election's positions locally.
func (s *Service) CheckMultiplePositions(ctx context.Context, electionID int64) (bool, error) {
	mp, err := s.client.MultiplePositions(ctx, electionID)
	if err == nil {
		return mp.HasMultiple ||
			mp.RequiredMethod == v1.VotingMethodMultiple, nil
	}
	log.Debugf("Multiple positions probe unavailable, counting "+
		"positions: %v", err)

	ps, perr := s.client.Positions(ctx, electionID)
	if perr != nil {
		return false, perr
	}
	active := 0
	for _, p := range ps {
		if p.IsActive {
			active++
		}
	}
	return active > 1, nil
}

// ValidateVotes runs the authority's validation over a vote set for an
// election.
func (s *Service) ValidateVotes(ctx context.Context, electionID int64, votes []v1.VoteEntry) (*v1.VotesValidation, error) {
	return s.client.ValidateVotes(ctx, electionID, votes)
}

// SystemIntegrity runs the authority's integrity diagnostics for an
// election.
func (s *Service) SystemIntegrity(ctx context.Context, electionID int64) (*v1.SystemIntegrity, error) {
	return s.client.SystemIntegrity(ctx, electionID)
}

// VoteHistory returns the audit trail entries recorded for a voter in an
// election. This is the portal's local record; the authority's receipt
// endpoint remains the authoritative source.
func (s *Service) VoteHistory(ctx context.Context, voterID string, electionID int64) ([]auditlog.Entry, error) {
	return s.audit.ByVoter(ctx, voterID, electionID)
}

// RequestPasswordReset asks the authority to start a password reset. The
// reset email is sent by the authority.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.client.ForgotPassword(ctx, email)
}

// ResetPassword completes a password reset with the emailed token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	return s.client.ResetPassword(ctx, token, newPassword, confirmPassword)
}
