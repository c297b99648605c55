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

// CastVote sends a single position vote to the authority on behalf of the
// voter that owns the token. The receipt in the reply is authoritative.
func (c *Client) CastVote(ctx context.Context, token string, cv v1.CastVote) (*v1.Receipt, error) {
	resBody, err := c.makeReq(ctx, http.MethodPost,
		v1.RouteCastVote, token, cv)
	if err != nil {
		return nil, err
	}

	var r v1.Receipt
	err = json.Unmarshal(resBody, &r)
	if err != nil {
		return nil, err
	}

	log.Debugf("CastVote: election %v position %v receipt %v",
		cv.ElectionID, cv.PositionID, r.ReceiptToken)

	return &r, nil
}

// CastVotes sends a full multi position ballot to the authority on behalf
// of the voter that owns the token. The authority records all votes
// atomically and replies with a single receipt.
func (c *Client) CastVotes(ctx context.Context, token string, cv v1.CastVotes) (*v1.Receipt, error) {
	resBody, err := c.makeReq(ctx, http.MethodPost,
		v1.RouteCastVotes, token, cv)
	if err != nil {
		return nil, err
	}

	var r v1.Receipt
	err = json.Unmarshal(resBody, &r)
	if err != nil {
		return nil, err
	}

	log.Debugf("CastVotes: election %v, %v votes, receipt %v",
		cv.ElectionID, len(cv.Votes), r.ReceiptToken)

	return &r, nil
}

// CanVote asks the authority whether the voter that owns the token is
// allowed to vote in the given election.
func (c *Client) CanVote(ctx context.Context, token string, electionID int64) (bool, error) {
	route := fmt.Sprintf(v1.RouteCanVote, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, token, nil)
	if err != nil {
		return false, err
	}

	var reply struct {
		CanVote bool `json:"canVote"`
	}
	err = json.Unmarshal(resBody, &reply)
	if err != nil {
		return false, err
	}

	return reply.CanVote, nil
}

// HasVoted asks the authority whether the voter that owns the token has
// already voted in the given election.
func (c *Client) HasVoted(ctx context.Context, token string, electionID int64) (bool, error) {
	route := fmt.Sprintf(v1.RouteHasVoted, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, token, nil)
	if err != nil {
		return false, err
	}

	var reply struct {
		HasVoted bool `json:"hasVoted"`
	}
	err = json.Unmarshal(resBody, &reply)
	if err != nil {
		return false, err
	}

	return reply.HasVoted, nil
}

// Receipt retrieves a previously issued vote receipt from the authority.
func (c *Client) Receipt(ctx context.Context, token, receiptToken string) (*v1.Receipt, error) {
	route := fmt.Sprintf(v1.RouteReceipt, receiptToken)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, token, nil)
	if err != nil {
		return nil, err
	}

	var r v1.Receipt
	err = json.Unmarshal(resBody, &r)
	if err != nil {
		return nil, err
	}

	log.Debugf("Receipt: %v", r.ReceiptToken)

	return &r, nil
}

// MultiplePositions asks the authority whether the given election has
// multiple positions and which cast route it requires.
func (c *Client) MultiplePositions(ctx context.Context, electionID int64) (*v1.MultiplePositions, error) {
	route := fmt.Sprintf(v1.RouteMultiplePositions, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var mp v1.MultiplePositions
	err = json.Unmarshal(resBody, &mp)
	if err != nil {
		return nil, err
	}

	return &mp, nil
}

// ValidateVotes asks the authority to validate the given vote set for an
// election. The votes are serialized as the request body so the authority
// judges the actual ballot being cast.
func (c *Client) ValidateVotes(ctx context.Context, electionID int64, votes []v1.VoteEntry) (*v1.VotesValidation, error) {
	route := fmt.Sprintf(v1.RouteValidateVotes, electionID)
	resBody, err := c.makeReq(ctx, http.MethodPost, route, "", votes)
	if err != nil {
		return nil, err
	}

	var vv v1.VotesValidation
	err = json.Unmarshal(resBody, &vv)
	if err != nil {
		return nil, err
	}

	log.Debugf("ValidateVotes: election %v %v", electionID, vv.Result)

	return &vv, nil
}

// SystemIntegrity asks the authority to run its integrity checks for the
// given election.
func (c *Client) SystemIntegrity(ctx context.Context, electionID int64) (*v1.SystemIntegrity, error) {
	route := fmt.Sprintf(v1.RouteSystemIntegrity, electionID)
	resBody, err := c.makeReq(ctx, http.MethodGet, route, "", nil)
	if err != nil {
		return nil, err
	}

	var si v1.SystemIntegrity
	err = json.Unmarshal(resBody, &si)
	if err != nil {
		return nil, err
	}

	log.Debugf("SystemIntegrity: election %v %v",
		electionID, si.OverallStatus)

	return &si, nil
}
