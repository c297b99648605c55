// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sessions provides the server side voter session store. The cookie
// carries only an encoded session ID; everything else (voter identity,
// authority token, the parked ballot) stays server side.
package sessions

import (
	"encoding/base32"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

var (
	// ErrNotFound is returned when an entry is not found in the database.
	ErrNotFound = errors.New("session not found")

	// ErrShutdown is returned when the database is shutdown.
	ErrShutdown = errors.New("session database is shutdown")
)

// EncodedSession contains a session's encoded values along with its
// creation time, which pruning uses to expire parked sessions.
type EncodedSession struct {
	Values    string
	CreatedAt int64 // Unix time
}

// DB represents the database for encoded session data.
type DB interface {
	// Save saves a session to the database.
	Save(sessionID string, s EncodedSession) error

	// Del deletes a session from the database.
	//
	// An error is not returned if the session does not exist.
	Del(sessionID string) error

	// Get gets a session from the database.
	//
	// An ErrNotFound error MUST be returned if a session is not found
	// for the session ID.
	Get(sessionID string) (*EncodedSession, error)

	// Prune deletes all sessions that were created before the given
	// Unix time and returns how many were deleted.
	Prune(before int64) (int, error)
}

// Store is a session store backed by a DB.
//
// Store implements the sessions.Store interface.
type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options
	db      DB
	now     func() int64 // Unix time, replaceable in tests
}

// newSessionID returns a new session ID. A session ID is defined as a 32
// byte base32 string with padding. The ID format follows the
// gorilla/sessions reference implementation.
func newSessionID() string {
	return base32.StdEncoding.EncodeToString(
		securecookie.GenerateRandomKey(32))
}

// Get returns a session for the given name after adding it to the registry.
//
// A new session is returned if the given session doesn't exist. Access
// IsNew on the session to check if it is an existing session or a new one.
//
// This function satisfies the sessions.Store interface.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	log.Tracef("Store.Get: %v", name)

	return sessions.GetRegistry(r).Get(s, name)
}

// New returns a session for the given name without adding it to the
// registry.
//
// The sessions.Store interface dictates that New() should never return a
// nil session, even in the case of an error.
//
// This function satisfies the sessions.Store interface.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	log.Tracef("Store.New: %v", name)

	// Setup new session
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true
	session.ID = newSessionID()

	// Check if the session cookie already exists
	c, err := r.Cookie(name)
	if err == http.ErrNoCookie {
		return session, nil
	} else if err != nil {
		return session, err
	}

	// Session cookie already exists. The encoded session ID travels in
	// the cookie. Decode it and use it to check if the session exists
	// in the store.
	err = securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...)
	if err != nil {
		return session, err
	}

	es, err := s.db.Get(session.ID)
	switch {
	case err == nil:
		// Session found in the database. Decode the stored values
		// into the session being returned.
		session.IsNew = false
		err = securecookie.DecodeMulti(session.Name(), es.Values,
			&session.Values, s.Codecs...)
		if err != nil {
			return session, err
		}
	case errors.Is(err, ErrNotFound):
		// Session not found in the database; the new session is
		// returned as is.
	default:
		return session, err
	}

	return session, nil
}

// Save saves the session to the store and updates the http response cookie
// with the encoded session ID.
//
// If the Options.MaxAge of the session is <= 0 then the session is deleted
// from the database, so logout does not depend on browser cookie handling.
//
// This function satisfies the sessions.Store interface.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	log.Tracef("Store.Save: %v", session.ID)

	// Delete session if max-age is <= 0
	if session.Options.MaxAge <= 0 {
		err := s.db.Del(session.ID)
		if err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "",
			session.Options))
		return nil
	}

	// Save session to the store
	encodedValues, err := securecookie.EncodeMulti(session.Name(),
		session.Values, s.Codecs...)
	if err != nil {
		return err
	}
	err = s.db.Save(session.ID, EncodedSession{
		Values:    encodedValues,
		CreatedAt: s.now(),
	})
	if err != nil {
		return err
	}

	// Update session cookie with encoded session ID
	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID,
		s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encodedID,
		session.Options))

	return nil
}

// Prune deletes all stored sessions older than maxAge seconds.
func (s *Store) Prune(maxAge int64) error {
	n, err := s.db.Prune(s.now() - maxAge)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debugf("Pruned %v expired sessions", n)
	}
	return nil
}

// NewStore returns a new Store.
//
// Keys are defined in pairs to allow key rotation, but the common case is
// to set a single authentication key and optionally an encryption key.
//
// The first key in a pair is used for authentication and the second for
// encryption. The encryption key can be set to nil or omitted in the last
// pair, but the authentication key is required in all pairs.
//
// It is recommended to use an authentication key with 32 or 64 bytes.
// The encryption key, if set, must be either 16, 24, or 32 bytes to select
// AES-128, AES-192, or AES-256 modes.
func NewStore(db DB, sessionMaxAge int, keyPairs ...[]byte) *Store {
	// Set the maxAge for each securecookie instance
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, codec := range codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(sessionMaxAge)
		}
	}

	return &Store{
		Codecs: codecs,
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   sessionMaxAge,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
		db:  db,
		now: unixNow,
	}
}
