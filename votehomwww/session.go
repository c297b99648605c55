// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/votehom/votehom/ballot"
	"github.com/votehom/votehom/voting"
)

const (
	// sessionName is the cookie name of the voter session.
	sessionName = "votehom-session"

	// Session value keys. The session values live server side; the
	// cookie carries only an encrypted session ID.
	svVoterID    = "voterid"
	svPassword   = "password"
	svElectionID = "electionid"
	svToken      = "token"
	svName       = "name"
	svBallot     = "ballot"
)

var errSessionNotFound = errors.New("no voter in session")

// sessionVoter returns the logged in voter of the request session.
func (v *votehomwww) sessionVoter(r *http.Request) (*voting.Voter, error) {
	session, err := v.store.Get(r, sessionName)
	if err != nil {
		return nil, err
	}
	voterID, ok := session.Values[svVoterID].(string)
	if !ok || voterID == "" {
		return nil, errSessionNotFound
	}
	password, _ := session.Values[svPassword].(string)
	electionID, _ := session.Values[svElectionID].(int64)
	token, _ := session.Values[svToken].(string)
	name, _ := session.Values[svName].(string)
	return &voting.Voter{
		VoterID:    voterID,
		Password:   password,
		ElectionID: electionID,
		Token:      token,
		Name:       name,
	}, nil
}

// saveSessionVoter writes the voter into the request session. It is also
// used after operations that refreshed the voter token.
func (v *votehomwww) saveSessionVoter(w http.ResponseWriter, r *http.Request, voter *voting.Voter) error {
	session, err := v.store.Get(r, sessionName)
	if err != nil {
		return err
	}
	session.Values[svVoterID] = voter.VoterID
	session.Values[svPassword] = voter.Password
	session.Values[svElectionID] = voter.ElectionID
	session.Values[svToken] = voter.Token
	session.Values[svName] = voter.Name
	return v.store.Save(r, w, session)
}

// removeSession deletes the voter session.
func (v *votehomwww) removeSession(w http.ResponseWriter, r *http.Request) error {
	session, err := v.store.Get(r, sessionName)
	if err != nil {
		return err
	}

	log.Debugf("Deleting user session: %v %v", r.URL.Path,
		session.Values[svVoterID])

	// Setting the MaxAge to <= 0 deletes the session.
	session.Options.MaxAge = -1
	return v.store.Save(r, w, session)
}

// sessionBallot returns the parked ballot of the request session, or nil
// when no ballot is in progress.
func (v *votehomwww) sessionBallot(r *http.Request) (*ballot.Session, error) {
	session, err := v.store.Get(r, sessionName)
	if err != nil {
		return nil, err
	}
	b, ok := session.Values[svBallot].(string)
	if !ok || b == "" {
		return nil, nil
	}
	var bs ballot.Session
	err = json.Unmarshal([]byte(b), &bs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &bs, nil
}

// saveSessionBallot parks the ballot in the request session. A nil ballot
// clears any parked ballot.
func (v *votehomwww) saveSessionBallot(w http.ResponseWriter, r *http.Request, bs *ballot.Session) error {
	session, err := v.store.Get(r, sessionName)
	if err != nil {
		return err
	}
	if bs == nil {
		delete(session.Values, svBallot)
		return v.store.Save(r, w, session)
	}
	b, err := json.Marshal(bs)
	if err != nil {
		return errors.WithStack(err)
	}
	session.Values[svBallot] = string(b)
	return v.store.Save(r, w, session)
}
