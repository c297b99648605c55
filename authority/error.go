// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RespError represents an authority response error. A RespError is returned
// anytime the authority response is not a 200 or its reply envelope reports
// failure.
type RespError struct {
	HTTPCode int
	Message  string
}

// Error satisfies the error interface.
func (e RespError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authority error: %v %v",
			e.HTTPCode, e.Message)
	}
	return fmt.Sprintf("authority error: %v", e.HTTPCode)
}

// sealedMarkers are the substrings the authority is known to include in its
// rejection message when an election is sealed. The authority replies in
// either locale depending on deployment.
var sealedMarkers = []string{
	"lacrada",
	"sealed and cannot receive votes",
}

// IsSealed returns whether the error is an authority rejection of a vote
// against a sealed election.
func IsSealed(err error) bool {
	var re RespError
	if !errors.As(err, &re) {
		return false
	}
	m := strings.ToLower(re.Message)
	for _, marker := range sealedMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

// IsAuthorization returns whether the error is an authority authorization
// failure. Authorization failures indicate an expired or invalid token and
// are the trigger for a transparent re-login.
func IsAuthorization(err error) bool {
	var re RespError
	if !errors.As(err, &re) {
		return false
	}
	return re.HTTPCode == http.StatusUnauthorized
}

// IsUnreachable returns whether the error is a transport level failure
// reaching the authority. A reply the authority actually sent, error
// replies included, is not a transport failure.
func IsUnreachable(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue)
}

// IsNotFound returns whether the error is an authority 404 reply.
func IsNotFound(err error) bool {
	var re RespError
	if !errors.As(err, &re) {
		return false
	}
	return re.HTTPCode == http.StatusNotFound
}
