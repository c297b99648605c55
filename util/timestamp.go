// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// malformedOffset matches a date-time string whose timezone suffix has been
// mangled by the authority. Known damage: a stray run of zeros before the
// offset, a missing sign, and a single digit hour. Examples that have been
// observed in the wild:
//
//	2024-05-01T08:00:0000003:00  (should be +03:00)
//	2024-05-01T08:00:00000-3:00  (should be -03:00)
//	2024-05-01T08:00:003:00      (should be +03:00)
//
// Capture groups: 1 date-time prefix, 2 optional sign, 3 offset hours,
// 4 offset minutes.
var malformedOffset = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?)(?:000)?([+-]?)(\d{1,2}):(\d{2})$`)

// knownOffsetRepairs contains literal substring substitutions that are
// applied when the general pattern does not match. These correspond to exact
// malformed suffixes the authority has returned before.
var knownOffsetRepairs = []struct {
	bad  string
	good string
}{
	{"00003:00", "+03:00"},
	{"000-3:00", "-03:00"},
}

// NormalizeTimestamp repairs a date-time string whose timezone offset is
// malformed and returns a string suitable for strict RFC 3339 parsing. A
// missing sign defaults to "+" and the offset hour is padded to two digits.
// Strings that already carry a well formed offset pass through the general
// pattern unchanged. If neither the pattern nor any known literal repair
// applies, the input is returned as is. This function never fails; a string
// that still does not parse after normalization is a data error that the
// caller must handle.
func NormalizeTimestamp(s string) string {
	if s == "" {
		return s
	}

	m := malformedOffset.FindStringSubmatch(s)
	if m != nil {
		prefix, sign, hours, minutes := m[1], m[2], m[3], m[4]
		if sign == "" {
			sign = "+"
		}
		if len(hours) == 1 {
			hours = "0" + hours
		}
		return prefix + sign + hours + ":" + minutes
	}

	for _, repair := range knownOffsetRepairs {
		if strings.Contains(s, repair.bad) {
			return strings.Replace(s, repair.bad, repair.good, 1)
		}
	}

	return s
}

// ParseAuthorityTime parses a date-time string returned by the election
// authority. The string is first repaired using NormalizeTimestamp and parsed
// under strict RFC 3339 rules. If parsing still fails, a last resort strategy
// strips everything from the first "+" or "-" that follows the time component
// and parses the remainder as a timezone naive local timestamp. An error is
// returned only when every strategy fails.
func ParseAuthorityTime(s string) (time.Time, error) {
	normalized := NormalizeTimestamp(s)

	t, err := time.Parse(time.RFC3339, normalized)
	if err == nil {
		return t, nil
	}

	// The date portion contains "-" separators so the search for the
	// offset sign must begin after the time component, which starts at
	// the "T" separator.
	idx := strings.IndexByte(s, 'T')
	if idx != -1 {
		if cut := strings.IndexAny(s[idx:], "+-"); cut != -1 {
			naive := s[:idx+cut]
			t, err = time.ParseInLocation("2006-01-02T15:04:05", naive,
				time.Local)
			if err == nil {
				return t, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("could not parse authority time %q", s)
}
