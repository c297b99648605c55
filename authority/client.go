// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package authority provides a client for interacting with the election
// authority API.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	v1 "github.com/votehom/votehom/authority/v1"
	"github.com/votehom/votehom/util"
)

// Client provides a client for interacting with the election authority API.
//
// The client holds no credentials. Every authenticated call takes the bearer
// token as an argument so that concurrent voter sessions can share a single
// client without their tokens bleeding into each other's requests.
type Client struct {
	host string
	http *http.Client
}

// makeReq makes an authority http request to the method and route provided,
// serializing the provided object as the request body, and returning the
// data payload of the response envelope. The token is set as a bearer
// authorization header on this request only; an empty token sends the
// request unauthenticated.
//
// A RespError is returned if the authority responds with anything other
// than a 200 http status code or if the envelope reports failure.
func (c *Client) makeReq(ctx context.Context, method, route, token string, v interface{}) ([]byte, error) {
	// Serialize body
	var (
		reqBody []byte
		err     error
	)
	if v != nil {
		reqBody, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	// Send request
	fullRoute := c.host + route
	req, err := http.NewRequestWithContext(ctx, method,
		fullRoute, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	// Handle reply. Errors come back both as non-200 status codes and as
	// 200 envelopes with the success flag unset, depending on the route.
	var reply v1.Response
	respBody := util.RespBody(r)
	if err := json.Unmarshal(respBody, &reply); err != nil {
		if r.StatusCode != http.StatusOK {
			return nil, RespError{
				HTTPCode: r.StatusCode,
			}
		}
		// Some routes reply with a bare payload instead of the
		// envelope.
		return respBody, nil
	}
	if r.StatusCode != http.StatusOK {
		return nil, RespError{
			HTTPCode: r.StatusCode,
			Message:  reply.Message,
		}
	}
	if !reply.Success {
		return nil, RespError{
			HTTPCode: r.StatusCode,
			Message:  reply.Message,
		}
	}
	if reply.Data != nil {
		return reply.Data, nil
	}
	return respBody, nil
}

// New returns a new authority client.
func New(host string, skipVerify bool) (*Client, error) {
	h, err := util.NewHTTPClient(skipVerify)
	if err != nil {
		return nil, err
	}
	return &Client{
		host: host,
		http: h,
	}, nil
}
