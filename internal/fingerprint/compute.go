package fingerprint

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// ErrAccessDenied signals content that exists but cannot be read due to
// permissions. Callers decide whether to drop checksum tracking; the computer
// never substitutes a value for unreadable content.
var ErrAccessDenied = errors.New("fingerprint: access denied")

// TimeFormat is the fixed rendering for time-based fingerprint values.
const TimeFormat = time.RFC3339Nano

// Compute derives the fingerprint of the object at path using algo. info is
// the caller's stat of the same path. The result is always in tagged form.
//
// Content algorithms fall back to Mtime when the object is not a regular file;
// failure to hash never fails the whole observation unless it is a permission
// error, which surfaces as ErrAccessDenied.
func Compute(algo Algorithm, info fs.FileInfo, path string) (Fingerprint, error) {
	switch Effective(algo, info) {
	case MD5:
		return hashContent(MD5, info, path, -1)
	case MD5Lite:
		return hashContent(MD5Lite, info, path, LiteSize)
	case Mtime:
		return New(Mtime, info.ModTime().UTC().Format(TimeFormat)), nil
	case Ctime:
		return New(Ctime, changeTime(info).UTC().Format(TimeFormat)), nil
	default:
		return Fingerprint{}, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, algo)
	}
}

// hashContent hashes up to limit bytes of the file (limit < 0 means all).
func hashContent(algo Algorithm, info fs.FileInfo, path string, limit int64) (Fingerprint, error) {
	if !info.Mode().IsRegular() {
		slog.Debug("not a regular file, falling back to mtime fingerprint", "path", path, "mode", info.Mode())
		return New(Mtime, info.ModTime().UTC().Format(TimeFormat)), nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return Fingerprint{}, fmt.Errorf("%w: %s", ErrAccessDenied, path)
		}
		slog.Warn("cannot open file for hashing, falling back to mtime fingerprint", "path", path, "error", err)
		return New(Mtime, info.ModTime().UTC().Format(TimeFormat)), nil
	}
	defer file.Close()

	var reader io.Reader = file
	if limit >= 0 {
		reader = io.LimitReader(file, limit)
	}

	hasher := md5.New()
	n, err := io.Copy(hasher, reader)
	if err != nil {
		if os.IsPermission(err) {
			return Fingerprint{}, fmt.Errorf("%w: %s", ErrAccessDenied, path)
		}
		return Fingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}

	// Historical convention: an empty file fingerprints as the literal "0",
	// not the digest of zero bytes. Existing caches contain "0" entries.
	if n == 0 {
		return New(algo, "0"), nil
	}
	return New(algo, fmt.Sprintf("%x", hasher.Sum(nil))), nil
}
