// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "trims values",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiAPIKey, "  gk_abc  \n")
				writeFile(t, dir, SemanticScholarAPIKey, "sk_xyz")
				return dir
			},
			want: Secrets{GeminiAPIKey: "gk_abc", SemanticScholarAPIKey: "sk_xyz"},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			want: Secrets{},
		},
		{
			name: "skips empty, hidden and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, IEEEAPIKey, "ik")
				writeFile(t, dir, "empty", "")
				writeFile(t, dir, "blank", " \n\t")
				writeFile(t, dir, ".gitkeep", "x")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
				return dir
			},
			want: Secrets{IEEEAPIKey: "ik"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, "dangling-key")))

	var warn bytes.Buffer
	got, err := Load(dir, &warn)
	require.NoError(t, err)
	assert.Equal(t, Secrets{"good-key": "value"}, got)
	assert.Contains(t, warn.String(), "warning: could not read secret dangling-key")
}

func TestGetFallsBackToEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	s := Secrets{SemanticScholarAPIKey: "from-file"}

	assert.Equal(t, "from-file", s.Get(SemanticScholarAPIKey))
	assert.Equal(t, "from-env", s.Get(GeminiAPIKey))
	assert.Equal(t, "IEEE_API_KEY", EnvName(IEEEAPIKey))
}
