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

// ActiveElections sends an active elections request to the authority.
func (c *Client) ActiveElections(ctx context.Context) ([]v1.ElectionSummary, error) {
	resBody, err := c.makeReq(ctx, http.MethodGet,
		v1.RouteActiveElections, "", nil)
	if err != nil {
		return nil, err
	}

	var es []v1.ElectionSummary
	err = json.Unmarshal(resBody, &es)
	if err != nil {
		return nil, err
	}

	log.Debugf("ActiveElections: %v elections", len(es))

	return es, nil
}

// ElectionDetail sends an election detail request to the authority. The
// date strings in the reply are returned raw; callers parse them with
// util.ParseAuthorityTime since the authority emits malformed offsets.
func (c *Client) ElectionDetail(ctx context.Context, electionID int64) (*v1.ElectionDetail, error) {
	route := fmt.Sprintf(v1.RouteElectionDetail, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var ed v1.ElectionDetail
	err = json.Unmarshal(resBody, &ed)
	if err != nil {
		return nil, err
	}

	log.Debugf("ElectionDetail: %v %v", ed.ID, ed.Status)

	return &ed, nil
}

// ElectionValidate sends a portal validation request to the authority. This
// is the richest of the election probes and the preferred one; it reports
// sealing and voting period state in a single reply.
func (c *Client) ElectionValidate(ctx context.Context, electionID int64) (*v1.ElectionValidation, error) {
	route := fmt.Sprintf(v1.RouteElectionValidate, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var ev v1.ElectionValidation
	err = json.Unmarshal(resBody, &ev)
	if err != nil {
		return nil, err
	}

	log.Debugf("ElectionValidate: %v valid=%v sealed=%v",
		electionID, ev.IsValid, ev.IsSealed)

	return &ev, nil
}

// VoterElectionStatus sends an election status request to the authority on
// behalf of the voter that owns the token.
func (c *Client) VoterElectionStatus(ctx context.Context, token string, electionID int64) (*v1.VoterElectionStatus, error) {
	route := fmt.Sprintf(v1.RouteVoterStatus, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, token, nil)
	if err != nil {
		return nil, err
	}

	var vs v1.VoterElectionStatus
	err = json.Unmarshal(resBody, &vs)
	if err != nil {
		return nil, err
	}

	log.Debugf("VoterElectionStatus: %v %v", electionID, vs.Status)

	return &vs, nil
}

// SetElectionStatus sends an administrative status change request to the
// authority. The token must carry administrative privileges.
func (c *Client) SetElectionStatus(ctx context.Context, token string, electionID int64, status v1.ElectionStatusT) error {
	ss := v1.SetElectionStatus{
		Status: status,
	}
	route := fmt.Sprintf(v1.RouteElectionStatus, electionID)
	_, err := c.makeReq(ctx, http.MethodPatch, route, token, ss)
	if err != nil {
		return err
	}

	log.Debugf("SetElectionStatus: %v %v", electionID, status)

	return nil
}
