// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestMain initializes the log rotator before any tests run. The package
// loggers must not be used before initLogRotator has been called.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "votehomwww-test")
	if err != nil {
		os.Exit(1)
	}
	initLogRotator(filepath.Join(dir, "test.log"))
	code := m.Run()
	logRotator.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}
