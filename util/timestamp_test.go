// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"testing"
	"time"
)

func TestNormalizeTimestamp(t *testing.T) {
	var tests = []struct {
		name string
		in   string
		want string
	}{
		{
			"well formed offset is unchanged",
			"2024-05-01T08:00:00+03:00",
			"2024-05-01T08:00:00+03:00",
		},
		{
			"well formed negative offset is unchanged",
			"2024-05-01T08:00:00-03:00",
			"2024-05-01T08:00:00-03:00",
		},
		{
			"utc zulu suffix is unchanged",
			"2024-05-01T08:00:00Z",
			"2024-05-01T08:00:00Z",
		},
		{
			"zero run with missing sign",
			"2024-05-01T08:00:0000003:00",
			"2024-05-01T08:00:00+03:00",
		},
		{
			"zero run with negative sign",
			"2024-05-01T18:30:00000-3:00",
			"2024-05-01T18:30:00-03:00",
		},
		{
			"bare single digit offset",
			"2024-05-01T08:00:003:00",
			"2024-05-01T08:00:00+03:00",
		},
		{
			"fractional seconds with bare offset",
			"2024-05-01T08:00:00.1233:00",
			"2024-05-01T08:00:00.123+03:00",
		},
		{
			"unrecognized garbage is unchanged",
			"not-a-timestamp",
			"not-a-timestamp",
		},
		{
			"empty string is unchanged",
			"",
			"",
		},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			got := NormalizeTimestamp(v.in)
			if got != v.want {
				t.Errorf("NormalizeTimestamp(%q): got %q, want %q",
					v.in, got, v.want)
			}
		})
	}
}

func TestParseAuthorityTime(t *testing.T) {
	var tests = []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			"well formed",
			"2024-05-01T08:00:00+03:00",
			time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("", 3*60*60)),
			false,
		},
		{
			"repaired offset",
			"2024-05-01T08:00:0000003:00",
			time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("", 3*60*60)),
			false,
		},
		{
			"repaired negative offset",
			"2024-05-01T18:30:00000-3:00",
			time.Date(2024, 5, 1, 18, 30, 0, 0, time.FixedZone("", -3*60*60)),
			false,
		},
		{
			"unparseable offset falls back to naive local time",
			"2024-05-01T08:00:00+banana",
			time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local),
			false,
		},
		{
			"unparseable string",
			"not-a-timestamp",
			time.Time{},
			true,
		},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			got, err := ParseAuthorityTime(v.in)
			switch {
			case v.wantErr && err == nil:
				t.Error("expected error, got nil")
			case !v.wantErr && err != nil:
				t.Errorf("unexpected error: %v", err)
			case !v.wantErr && !got.Equal(v.want):
				t.Errorf("got %v, want %v", got, v.want)
			}
		})
	}
}
