package localwrite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allPolicies = []Policy{Skip, Replace, Upsert}

// writeWithModTime creates a file whose modification time is mtime plus a
// sub-second offset, which must not affect comparisons.
func writeWithModTime(t *testing.T, path string, mtime arfs.UnixTime) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("local"), 0o644))
	ts := mtime.Time().Add(420 * time.Millisecond)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestMayWriteFile_DestinationAbsent(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing.txt")
	for _, p := range allPolicies {
		ok, err := MayWriteFile(dest, 1000, p)
		require.NoError(t, err)
		assert.True(t, ok, p.String())
	}
}

func TestMayWriteFile_ExistingFile(t *testing.T) {
	const local arfs.UnixTime = 1_700_000_000

	tests := []struct {
		name   string
		remote arfs.UnixTime
		policy Policy
		want   bool
	}{
		{"same time skip", local, Skip, false},
		{"same time upsert", local, Upsert, false},
		{"same time replace", local, Replace, true},
		{"differs skip", local + 5, Skip, false},
		{"differs upsert", local + 5, Upsert, true},
		{"differs replace", local - 5, Replace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "file.txt")
			writeWithModTime(t, dest, local)

			ok, err := MayWriteFile(dest, tt.remote, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMayWriteFile_MillisecondRemoteTime(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.txt")
	writeWithModTime(t, dest, 1_700_000_001)

	// 1_700_000_000_250 ms rounds up to the local second
	ok, err := MayWriteFile(dest, arfs.UnixTimeFromMillis(1_700_000_000_250), Upsert)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = MayWriteFile(dest, arfs.UnixTimeFromMillis(1_700_000_000_000), Upsert)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMayWriteFile_DestinationIsDirectory(t *testing.T) {
	dest := t.TempDir()

	ok, err := MayWriteFile(dest, 1000, Skip)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, p := range []Policy{Replace, Upsert} {
		ok, err := MayWriteFile(dest, 1000, p)
		assert.ErrorIs(t, err, arfs.ErrTypeConflict, p.String())
		assert.False(t, ok)
	}
}

func TestMayWrite_ParentIsFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.WriteFile(parent, []byte("not a dir"), 0o644))

	for _, p := range allPolicies {
		ok, err := MayWriteFile(filepath.Join(parent, "a.txt"), 1000, p)
		require.NoError(t, err, p.String())
		assert.True(t, ok, p.String())

		ok, err = MayWriteFolder(filepath.Join(parent, "sub"), p)
		require.NoError(t, err, p.String())
		assert.True(t, ok, p.String())
	}
}

func TestMayWriteFolder(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "taken")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	for _, p := range allPolicies {
		ok, err := MayWriteFolder(filepath.Join(dir, "new"), p)
		require.NoError(t, err)
		assert.True(t, ok, p.String())

		ok, err = MayWriteFolder(dir, p)
		require.NoError(t, err)
		assert.False(t, ok, p.String())
	}

	ok, err := MayWriteFolder(file, Skip)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, p := range []Policy{Replace, Upsert} {
		ok, err := MayWriteFolder(file, p)
		assert.ErrorIs(t, err, arfs.ErrTypeConflict, p.String())
		assert.False(t, ok)
	}

	// nothing was written
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestParsePolicy(t *testing.T) {
	tests := map[string]Policy{
		"":             Upsert,
		"skip":         Skip,
		"conservative": Skip,
		"Replace":      Replace,
		" upsert ":     Upsert,
	}
	for in, want := range tests {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicy("overwrite")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestPolicy_Text(t *testing.T) {
	for _, p := range allPolicies {
		text, err := p.MarshalText()
		require.NoError(t, err)

		var back Policy
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, p, back)
	}

	_, err := Policy(9).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Equal(t, "Policy(9)", Policy(9).String())
}
