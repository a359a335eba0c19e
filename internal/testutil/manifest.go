package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteManifest writes CUE manifest source to a temp file and returns its
// path. The file is removed with the test's temp dir.
func WriteManifest(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
