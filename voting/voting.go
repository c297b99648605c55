// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package voting implements the orchestration core of the voting portal:
// election discovery, voter authentication with a transparent token
// refresh, ballot submission with the sealed election compensation, and the
// audit trail of accepted votes. The election authority remains the system
// of record throughout; this package never invents receipts, timestamps or
// eligibility answers of its own.
package voting

import (
	"time"

	"github.com/votehom/votehom/auditlog"
	"github.com/votehom/votehom/authority"
)

// Config holds the knobs of the voting service.
type Config struct {
	// ElectionID is the operator configured election. When set, the
	// resolver tries it before falling back to discovery.
	ElectionID int64

	// AdminEmail and AdminPassword are the administrative credentials
	// used by the sealed election workaround and by admin assisted
	// election lookups. Admin tokens obtained with them are used for
	// single calls and discarded; they are never attached to a voter
	// session.
	AdminEmail    string
	AdminPassword string

	// SealedWorkaround enables the unseal/vote/reseal compensation for
	// votes rejected against a sealed election. Off by default; the
	// workaround mutates election state and has to be an explicit
	// operator decision.
	SealedWorkaround bool
}

// Service provides the voting orchestration operations.
type Service struct {
	cfg    Config
	client *authority.Client
	audit  auditlog.DB

	// now is the wall clock, replaceable in tests. The clock matters:
	// the clock skew guard compares it against authority reported
	// voting windows.
	now func() time.Time
}

// New returns a new voting service.
func New(client *authority.Client, audit auditlog.DB, cfg Config) *Service {
	return &Service{
		cfg:    cfg,
		client: client,
		audit:  audit,
		now:    time.Now,
	}
}
