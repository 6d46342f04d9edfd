package sync

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestFingerprint_FullDeterministic(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("test content for hashing"))

	first, err := Fingerprint(path, ModeFull)
	require.NoError(t, err)
	assert.Len(t, first, 64, "hex-encoded sha256")

	second, err := Fingerprint(path, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFingerprint_FullSeesEveryByte(t *testing.T) {
	dir := t.TempDir()
	// identical except for the very last byte, well past the pseudo prefix
	big := bytes.Repeat([]byte("x"), 4096)
	tweaked := append(bytes.Repeat([]byte("x"), 4095), 'y')

	a := writeFile(t, dir, "a.bin", big)
	b := writeFile(t, filepath.Join(dir, "other"), "a.bin", tweaked)

	fpA, err := Fingerprint(a, ModeFull)
	require.NoError(t, err)
	fpB, err := Fingerprint(b, ModeFull)
	require.NoError(t, err)
	assert.NotEqual(t, fpA, fpB)
}

func TestFingerprint_PseudoDeterministic(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("hello"))

	first, err := Fingerprint(path, ModePseudo)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := Fingerprint(path, ModePseudo)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFingerprint_PseudoIgnoresTailBytes(t *testing.T) {
	dir := t.TempDir()
	// same name, same size, same first KiB: only tail bytes differ
	base := bytes.Repeat([]byte("x"), 2048)
	tail := append(bytes.Repeat([]byte("x"), 2047), 'y')

	a := writeFile(t, filepath.Join(dir, "one"), "same.bin", base)
	b := writeFile(t, filepath.Join(dir, "two"), "same.bin", tail)

	fpA, err := Fingerprint(a, ModePseudo)
	require.NoError(t, err)
	fpB, err := Fingerprint(b, ModePseudo)
	require.NoError(t, err)
	assert.Equal(t, fpA, fpB, "tail change beyond the prefix is invisible to pseudo mode")
}

func TestFingerprint_PseudoSensitivity(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("x"), 2048)

	base, err := Fingerprint(writeFile(t, filepath.Join(dir, "d1"), "same.bin", content), ModePseudo)
	require.NoError(t, err)

	t.Run("different name", func(t *testing.T) {
		fp, err := Fingerprint(writeFile(t, filepath.Join(dir, "d2"), "renamed.bin", content), ModePseudo)
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})

	t.Run("different size", func(t *testing.T) {
		fp, err := Fingerprint(writeFile(t, filepath.Join(dir, "d3"), "same.bin", append(content, 'x')), ModePseudo)
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})

	t.Run("different prefix", func(t *testing.T) {
		changed := append([]byte("y"), content[1:]...)
		fp, err := Fingerprint(writeFile(t, filepath.Join(dir, "d4"), "same.bin", changed), ModePseudo)
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})
}

func TestFingerprint_PseudoShortFile(t *testing.T) {
	// smaller than the 1 KiB prefix, no padding is applied
	path := writeFile(t, t.TempDir(), "tiny.txt", []byte("hi"))

	fp, err := Fingerprint(path, ModePseudo)
	require.NoError(t, err)
	assert.Len(t, fp, 64)
}

func TestFingerprint_ModesDisjoint(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("hello"))

	full, err := Fingerprint(path, ModeFull)
	require.NoError(t, err)
	pseudo, err := Fingerprint(path, ModePseudo)
	require.NoError(t, err)
	assert.NotEqual(t, full, pseudo)
}

func TestFingerprint_MissingFile(t *testing.T) {
	_, err := Fingerprint(filepath.Join(t.TempDir(), "nope.txt"), ModeFull)
	assert.Error(t, err)

	_, err = Fingerprint(filepath.Join(t.TempDir(), "nope.txt"), ModePseudo)
	assert.Error(t, err)
}
