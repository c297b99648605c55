// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides the application version that is shared by the
// votehom daemons and tools.
package version

import (
	"bytes"
	"fmt"
	"strings"
)

// semverAlphabet is the set of characters that are permitted in the
// PreRelease and BuildMetadata portions of a semantic version string.
const semverAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

// Constants defining the application version number.
const (
	Major = 1
	Minor = 0
	Patch = 0
)

// PreRelease is defined as a variable so it can be overridden during the
// build process with:
//	-ldflags "-X github.com/votehom/votehom/version.PreRelease=foo"
var PreRelease = "pre"

// BuildMetadata is defined as a variable so it can be overridden during the
// build process.
var BuildMetadata = "dev"

// String returns the application version as a properly formed string per
// the semantic versioning 2.0.0 spec (https://semver.org/).
func String() string {
	// Start with the major, minor, and patch versions.
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)

	// Append pre-release version if there is one. The hyphen called for by
	// the semantic versioning spec is automatically appended and should not
	// be contained in the pre-release string.
	preRelease := normalizeVerString(PreRelease)
	if preRelease != "" {
		version = version + "-" + preRelease
	}

	// Append build metadata if there is one. The plus called for by the
	// semantic versioning spec is automatically appended and should not be
	// contained in the build metadata string.
	buildMetadata := normalizeVerString(BuildMetadata)
	if buildMetadata != "" {
		version = version + "+" + buildMetadata
	}

	return version
}

// normalizeVerString returns the passed string stripped of all characters
// which are not valid according to the semantic versioning guidelines for
// pre-release and build metadata strings.
func normalizeVerString(str string) string {
	var result bytes.Buffer
	for _, r := range str {
		if strings.ContainsRune(semverAlphabet, r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
