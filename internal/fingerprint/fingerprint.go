package fingerprint

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// Algorithm selects how an object's fingerprint value is derived.
type Algorithm string

const (
	// MD5 hashes the full file content.
	MD5 Algorithm = "md5"
	// MD5Lite hashes only the first 512 bytes of content.
	MD5Lite Algorithm = "md5lite"
	// Mtime uses the object's modification time.
	Mtime Algorithm = "mtime"
	// Ctime uses the object's metadata change time.
	Ctime Algorithm = "ctime"
)

const (
	// NoChecksum is the value of a fingerprint that was never computed.
	// It compares unequal to every real fingerprint value.
	NoChecksum = "no-checksum"

	// Absent is the observed value reported for an object missing at stat time.
	Absent = "absent"

	// LiteSize is the number of leading content bytes MD5Lite hashes.
	LiteSize = 512
)

var ErrInvalidAlgorithm = fmt.Errorf("invalid fingerprint algorithm")

var tagRe = regexp.MustCompile(`^\{(\w+)\}(.*)$`)

// aliases maps accepted input tokens to canonical algorithms.
var aliases = map[string]Algorithm{
	"md5":       MD5,
	"md5lite":   MD5Lite,
	"mtime":     Mtime,
	"timestamp": Mtime,
	"ctime":     Ctime,
}

// Algorithms returns the canonical algorithm set.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, MD5Lite, Mtime, Ctime}
}

// ParseAlgorithm resolves a bare token to its canonical algorithm.
func ParseAlgorithm(token string) (Algorithm, error) {
	if algo, ok := aliases[strings.ToLower(strings.TrimSpace(token))]; ok {
		return algo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAlgorithm, token)
}

// Fingerprint is an (algorithm, value) pair summarizing an object's content
// or metadata at a point in time. Its canonical text form is "{algorithm}value".
type Fingerprint struct {
	Algorithm Algorithm
	Value     string
}

// New tags value with algo. Already-tagged values are stripped first, so
// tagging is idempotent and never double-wraps.
func New(algo Algorithm, value string) Fingerprint {
	if m := tagRe.FindStringSubmatch(value); m != nil {
		value = m[2]
	}
	return Fingerprint{Algorithm: algo, Value: value}
}

// Parse decodes raw into a Fingerprint. Tagged input "{algo}value" decomposes
// into both parts; a bare recognized algorithm token yields a fingerprint with
// that algorithm and no value (algorithm selection). Anything else is an
// ErrInvalidAlgorithm.
func Parse(raw string) (Fingerprint, error) {
	if m := tagRe.FindStringSubmatch(raw); m != nil {
		algo, err := ParseAlgorithm(m[1])
		if err != nil {
			return Fingerprint{}, err
		}
		return Fingerprint{Algorithm: algo, Value: m[2]}, nil
	}
	algo, err := ParseAlgorithm(raw)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{Algorithm: algo}, nil
}

// IsTagged reports whether raw carries a "{algorithm}" prefix.
func IsTagged(raw string) bool {
	return tagRe.MatchString(raw)
}

// String renders the canonical tagged form.
func (f Fingerprint) String() string {
	return fmt.Sprintf("{%s}%s", f.Algorithm, f.Value)
}

// IsZero reports whether f carries no algorithm and no value.
func (f Fingerprint) IsZero() bool {
	return f.Algorithm == "" && f.Value == ""
}

// Equal reports whether two fingerprints match on both algorithm and value.
// The NoChecksum sentinel never equals a real value, itself included.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.Value == NoChecksum || other.Value == NoChecksum {
		return false
	}
	return f.Algorithm == other.Algorithm && f.Value == other.Value
}

// Effective resolves the algorithm actually usable against info. Directories
// have no byte content to hash, so content algorithms downgrade to Mtime.
func Effective(algo Algorithm, info fs.FileInfo) Algorithm {
	if info != nil && info.IsDir() && (algo == MD5 || algo == MD5Lite) {
		return Mtime
	}
	return algo
}
