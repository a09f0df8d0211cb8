package fingerprint

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
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func statFor(t *testing.T, path string) os.FileInfo {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func TestCompute_MD5(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.txt", []byte("hello"))

	fp, err := Compute(MD5, statFor(t, path), path)
	require.NoError(t, err)
	assert.Equal(t, "{md5}5d41402abc4b2a76b9719d911017c592", fp.String())
}

func TestCompute_MD5_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.txt", nil)

	fp, err := Compute(MD5, statFor(t, path), path)
	require.NoError(t, err)
	// Historical convention, not the digest of zero bytes.
	assert.Equal(t, "{md5}0", fp.String())
}

func TestCompute_MD5Lite_HashesLeadingBytesOnly(t *testing.T) {
	dir := t.TempDir()
	head := bytes.Repeat([]byte("a"), LiteSize)
	full := writeFile(t, dir, "full.txt", append(append([]byte{}, head...), []byte("trailing garbage")...))
	lead := writeFile(t, dir, "lead.txt", head)

	fpFull, err := Compute(MD5Lite, statFor(t, full), full)
	require.NoError(t, err)
	fpLead, err := Compute(MD5, statFor(t, lead), lead)
	require.NoError(t, err)

	assert.Equal(t, fpLead.Value, fpFull.Value, "md5lite hashes only the first %d bytes", LiteSize)
	assert.Equal(t, MD5Lite, fpFull.Algorithm)
}

func TestCompute_Mtime(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.txt", []byte("x"))
	info := statFor(t, path)

	fp, err := Compute(Mtime, info, path)
	require.NoError(t, err)
	assert.Equal(t, Mtime, fp.Algorithm)
	assert.Equal(t, info.ModTime().UTC().Format(TimeFormat), fp.Value)
}

func TestCompute_Ctime(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.txt", []byte("x"))

	fp, err := Compute(Ctime, statFor(t, path), path)
	require.NoError(t, err)
	assert.Equal(t, Ctime, fp.Algorithm)
	assert.NotEmpty(t, fp.Value)
}

func TestCompute_DirectoryDowngradesToMtime(t *testing.T) {
	dir := t.TempDir()
	info := statFor(t, dir)

	fp, err := Compute(MD5, info, dir)
	require.NoError(t, err)
	assert.Equal(t, Mtime, fp.Algorithm, "directories have no content to hash")
	assert.Equal(t, info.ModTime().UTC().Format(TimeFormat), fp.Value)
}

func TestCompute_UnreadableFileIsAccessDenied(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	path := writeFile(t, t.TempDir(), "secret.txt", []byte("hidden"))
	require.NoError(t, os.Chmod(path, 0o000))

	_, err := Compute(MD5, statFor(t, path), path)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestEffective(t *testing.T) {
	dir := t.TempDir()
	dirInfo := statFor(t, dir)
	fileInfo := statFor(t, writeFile(t, dir, "f.txt", []byte("x")))

	assert.Equal(t, Mtime, Effective(MD5, dirInfo))
	assert.Equal(t, Mtime, Effective(MD5Lite, dirInfo))
	assert.Equal(t, Ctime, Effective(Ctime, dirInfo))
	assert.Equal(t, MD5, Effective(MD5, fileInfo))
}
