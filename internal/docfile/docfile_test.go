// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string   `json:"name" yaml:"name"`
	Items []string `json:"items" yaml:"items"`
}

func TestRoundTripByExtension(t *testing.T) {
	dir := t.TempDir()
	in := doc{Name: "criteria", Items: []string{"a", "b"}}

	for _, name := range []string{"out.json", "nested/out.yaml", "out.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, in), name)

		var got doc
		require.NoError(t, Read(path, &got), name)
		assert.Equal(t, in, got, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "nested/out.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "name: criteria"))

	raw, err = os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name": "criteria"`)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	var d doc
	assert.Error(t, Read(filepath.Join(dir, "missing.json"), &d))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	err := Read(bad, &d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}
