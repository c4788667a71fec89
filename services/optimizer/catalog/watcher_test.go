// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RequiresHandler(t *testing.T) {
	_, err := NewWatcher("catalog.yaml", 0, nil, nil)
	require.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	initial := "strategies:\n  - id: first\n    effectiveness: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))

	reloaded := make(chan *Catalog, 4)
	w, err := NewWatcher(path, 50*time.Millisecond, slog.Default(), func(c *Catalog) {
		reloaded <- c
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	updated := "strategies:\n  - id: second\n    effectiveness: 0.7\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cat := <-reloaded:
		assert.True(t, cat.Has("second"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategies: []"), 0o644))

	w, err := NewWatcher(path, 0, nil, func(*Catalog) {})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start())
	require.Error(t, w.Start())
}
