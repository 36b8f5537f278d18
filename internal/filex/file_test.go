package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("downloads")
	require.NoError(t, err)

	want := filepath.Join(tmp, "downloads")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)

	require.Equal(t, dir, first)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("downloads", []byte("x"), 0o660))

	_, err := EnsureDir("downloads")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`..\..\windows\x.dll`: "x.dll",
		"/abs/path/a.txt":     "a.txt",
		"..":                  "",
		"   ":                 "",
		"":                    "",
	}
	for in, want := range tests {
		require.Equal(t, want, SafeName(in), "input %q", in)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	p, err := UniquePath(dir, "a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a.txt"), p)

	require.NoError(t, os.WriteFile(p, nil, 0o600))
	p, err = UniquePath(dir, "a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a (1).txt"), p)

	require.NoError(t, os.WriteFile(p, nil, 0o600))
	p, err = UniquePath(dir, "a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a (2).txt"), p)
}
