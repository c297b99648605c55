// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	v1 "github.com/votehom/votehom/authority/v1"
)

// Positions sends a positions request to the authority for the given
// election.
func (c *Client) Positions(ctx context.Context, electionID int64) ([]v1.Position, error) {
	route := fmt.Sprintf(v1.RoutePositions, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var ps []v1.Position
	err = json.Unmarshal(resBody, &ps)
	if err != nil {
		return nil, err
	}

	log.Debugf("Positions: election %v, %v positions",
		electionID, len(ps))

	return ps, nil
}

// Candidates sends a candidates request to the authority for the given
// position.
func (c *Client) Candidates(ctx context.Context, positionID int64) ([]v1.Candidate, error) {
	route := fmt.Sprintf(v1.RouteCandidates, positionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var cs []v1.Candidate
	err = json.Unmarshal(resBody, &cs)
	if err != nil {
		return nil, err
	}

	log.Debugf("Candidates: position %v, %v candidates",
		positionID, len(cs))

	return cs, nil
}

// PortalCandidates sends a portal candidates request to the authority. The
// reply bundles every position of the election with its candidates.
func (c *Client) PortalCandidates(ctx context.Context, electionID int64) (*v1.PortalElection, error) {
	route := fmt.Sprintf(v1.RoutePortalCandidates, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var pe v1.PortalElection
	err = json.Unmarshal(resBody, &pe)
	if err != nil {
		return nil, err
	}

	log.Debugf("PortalCandidates: election %v, %v positions",
		electionID, len(pe.Positions))

	return &pe, nil
}

// PositionCandidates sends a portal position candidates request to the
// authority.
func (c *Client) PositionCandidates(ctx context.Context, positionID int64) ([]v1.Candidate, error) {
	route := fmt.Sprintf(v1.RoutePositionCandidate, positionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var cs []v1.Candidate
	err = json.Unmarshal(resBody, &cs)
	if err != nil {
		return nil, err
	}

	log.Debugf("PositionCandidates: position %v, %v candidates",
		positionID, len(cs))

	return cs, nil
}

// CandidatePhoto sends a candidate photo request to the authority.
func (c *Client) CandidatePhoto(ctx context.Context, candidateID int64) (*v1.CandidatePhoto, error) {
	route := fmt.Sprintf(v1.RouteCandidatePhoto, candidateID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var cp v1.CandidatePhoto
	err = json.Unmarshal(resBody, &cp)
	if err != nil {
		return nil, err
	}

	log.Debugf("CandidatePhoto: candidate %v has=%v",
		candidateID, cp.HasPhoto)

	return &cp, nil
}
