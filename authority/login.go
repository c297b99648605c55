// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority

import (
	"context"
	"encoding/json"
	"net/http"

	v1 "github.com/votehom/votehom/authority/v1"
)

// Login sends a voter login request to the authority. The voter ID and
// password are scoped to the given election.
func (c *Client) Login(ctx context.Context, voterID, password string, electionID int64) (*v1.LoginReply, error) {
	l := v1.Login{
		VoterID:    voterID,
		Password:   password,
		ElectionID: electionID,
	}
	resBody, err := c.makeReq(ctx, http.MethodPost,
		v1.RouteLogin, "", l)
	if err != nil {
		return nil, err
	}

	var lr v1.LoginReply
	err = json.Unmarshal(resBody, &lr)
	if err != nil {
		return nil, err
	}

	log.Debugf("Login: voter %v election %v", lr.VoterID, electionID)

	return &lr, nil
}

// AdminLogin sends an administrator login request to the authority. The
// reply token carries administrative privileges and must never be handed to
// a voter session.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*v1.LoginReply, error) {
	al := v1.AdminLogin{
		Email:    email,
		Password: password,
	}
	resBody, err := c.makeReq(ctx, http.MethodPost,
		v1.RouteAdminLogin, "", al)
	if err != nil {
		return nil, err
	}

	var lr v1.LoginReply
	err = json.Unmarshal(resBody, &lr)
	if err != nil {
		return nil, err
	}

	log.Debugf("AdminLogin: %v", email)

	return &lr, nil
}

// ForgotPassword asks the authority to start a password reset for the voter
// with the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	fp := v1.ForgotPassword{
		Email: email,
	}
	_, err := c.makeReq(ctx, http.MethodPost,
		v1.RouteForgotPassword, "", fp)
	if err != nil {
		return err
	}

	log.Debugf("ForgotPassword: %v", email)

	return nil
}

// ResetPassword completes a password reset using the token the authority
// mailed to the voter.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	rp := v1.ResetPassword{
		Token:           token,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	}
	_, err := c.makeReq(ctx, http.MethodPost,
		v1.RouteResetPassword, "", rp)
	if err != nil {
		return err
	}

	log.Debugf("ResetPassword: ok")

	return nil
}
