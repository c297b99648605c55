// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"context"
	"time"

	v1 "github.com/votehom/votehom/authority/v1"
	"github.com/votehom/votehom/util"
)

// Election is the resolved election the portal operates against. The dates
// are parsed from the authority's raw strings after timestamp repair; a
// zero time means the authority string could not be parsed at all.
type Election struct {
	ID          int64
	Title       string
	Description string
	Status      v1.ElectionStatusT
	StartDate   time.Time
	EndDate     time.Time
	Sealed      bool
	AllowBlank  bool
	AllowNull   bool
	CompanyName string
}

// parseWindow parses an authority voting window. Unparseable boundaries are
// logged and left as zero times; discovery must not fail because a date is
// mangled beyond repair.
func parseWindow(electionID int64, startDate, endDate string) (time.Time, time.Time) {
	var start, end time.Time
	if startDate != "" {
		t, err := util.ParseAuthorityTime(startDate)
		if err != nil {
			log.Warnf("Election %v: unparseable start date %q: %v",
				electionID, startDate, err)
		} else {
			start = t
		}
	}
	if endDate != "" {
		t, err := util.ParseAuthorityTime(endDate)
		if err != nil {
			log.Warnf("Election %v: unparseable end date %q: %v",
				electionID, endDate, err)
		} else {
			end = t
		}
	}
	return start, end
}

// electionFromDetail builds an Election from a detail reply.
func electionFromDetail(d *v1.ElectionDetail) *Election {
	start, end := parseWindow(d.ID, d.StartDate, d.EndDate)
	return &Election{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		StartDate:   start,
		EndDate:     end,
		AllowBlank:  d.AllowBlank,
		AllowNull:   d.AllowNull,
		CompanyName: d.CompanyName,
	}
}

// votable reports whether a validation reply describes an election the
// portal can present for voting. Sealed elections count as votable;
// whether a vote against one goes through is decided at submission time,
// where the workaround can compensate.
func votable(ev *v1.ElectionValidation) bool {
	return ev.IsValid || ev.IsSealed
}

// resolveConfigured resolves the operator configured election. It tries the
// richest probe first and degrades: portal validation, public detail,
// admin assisted status probe. Every failed attempt is logged and absorbed.
func (s *Service) resolveConfigured(ctx context.Context) *Election {
	electionID := s.cfg.ElectionID

	// Portal validation probe.
	ev, err := s.client.ElectionValidate(ctx, electionID)
	if err != nil {
		log.Debugf("Resolver: validate probe for %v failed: %v",
			electionID, err)
	} else if votable(ev) {
		e := s.electionFromValidation(ctx, electionID, ev)
		log.Infof("Resolved election %v via validation probe",
			electionID)
		return e
	} else {
		log.Debugf("Resolver: election %v not votable: %v",
			electionID, ev.ValidationMessage)
	}

	// Public detail probe.
	d, err := s.client.ElectionDetail(ctx, electionID)
	if err != nil {
		log.Debugf("Resolver: detail probe for %v failed: %v",
			electionID, err)
	} else if d.Status == v1.ElectionStatusActive {
		log.Infof("Resolved election %v via detail probe", electionID)
		return electionFromDetail(d)
	}

	// Admin assisted status probe. The admin token is used for this
	// single call and discarded.
	if s.cfg.AdminEmail != "" {
		lr, err := s.client.AdminLogin(ctx, s.cfg.AdminEmail,
			s.cfg.AdminPassword)
		if err != nil {
			log.Debugf("Resolver: admin login failed: %v", err)
			return nil
		}
		vs, err := s.client.VoterElectionStatus(ctx, lr.Token,
			electionID)
		if err != nil {
			log.Debugf("Resolver: admin status probe for %v "+
				"failed: %v", electionID, err)
			return nil
		}
		if vs.Status == v1.ElectionStatusActive || vs.IsSealed {
			start, end := parseWindow(electionID,
				vs.StartDate, vs.EndDate)
			log.Infof("Resolved election %v via admin status "+
				"probe", electionID)
			return &Election{
				ID:        electionID,
				Title:     vs.Title,
				Status:    vs.Status,
				StartDate: start,
				EndDate:   end,
				Sealed:    vs.IsSealed,
			}
		}
	}

	return nil
}

// electionFromValidation builds an Election from a validation reply,
// enriched with the public detail when it is reachable.
func (s *Service) electionFromValidation(ctx context.Context, electionID int64, ev *v1.ElectionValidation) *Election {
	start, end := parseWindow(electionID, ev.StartDate, ev.EndDate)
	e := &Election{
		ID:        electionID,
		Status:    ev.Status,
		StartDate: start,
		EndDate:   end,
		Sealed:    ev.IsSealed,
	}
	d, err := s.client.ElectionDetail(ctx, electionID)
	if err != nil {
		log.Debugf("Resolver: detail enrich for %v failed: %v",
			electionID, err)
		return e
	}
	e.Title = d.Title
	e.Description = d.Description
	e.AllowBlank = d.AllowBlank
	e.AllowNull = d.AllowNull
	e.CompanyName = d.CompanyName
	if e.StartDate.IsZero() && e.EndDate.IsZero() {
		e.StartDate, e.EndDate = parseWindow(electionID,
			d.StartDate, d.EndDate)
	}
	return e
}

// resolveDiscovered walks the public active elections listing and returns
// the first election that validates as votable.
func (s *Service) resolveDiscovered(ctx context.Context) *Election {
	es, err := s.client.ActiveElections(ctx)
	if err != nil {
		log.Debugf("Resolver: active elections listing failed: %v",
			err)
		return nil
	}
	for _, candidate := range es {
		ev, err := s.client.ElectionValidate(ctx, candidate.ID)
		if err != nil {
			log.Debugf("Resolver: validate probe for %v "+
				"failed: %v", candidate.ID, err)
			continue
		}
		if !votable(ev) {
			log.Debugf("Resolver: election %v not votable: %v",
				candidate.ID, ev.ValidationMessage)
			continue
		}
		e := s.electionFromValidation(ctx, candidate.ID, ev)
		if e.Title == "" {
			e.Title = candidate.Title
		}
		log.Infof("Resolved election %v via discovery", candidate.ID)
		return e
	}
	return nil
}

// ResolveElection finds the election the portal should present. The
// configured election takes precedence when it resolves; otherwise the
// public active elections listing is searched. ErrNoElection is returned
// only after every strategy has been exhausted.
func (s *Service) ResolveElection(ctx context.Context) (*Election, error) {
	if s.cfg.ElectionID != 0 {
		if e := s.resolveConfigured(ctx); e != nil {
			return e, nil
		}
	}
	if e := s.resolveDiscovered(ctx); e != nil {
		return e, nil
	}
	return nil, ErrNoElection
}

// ElectionExpired reports whether the election's voting window has closed
// according to the portal's own clock. A zero end date means the window is
// unknown and the election is treated as open.
func (s *Service) ElectionExpired(e *Election) bool {
	if e.EndDate.IsZero() {
		return false
	}
	return s.now().After(e.EndDate)
}
