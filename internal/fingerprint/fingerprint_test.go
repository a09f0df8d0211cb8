package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, algo := range Algorithms() {
		fp := New(algo, "somevalue-123")
		parsed, err := Parse(fp.String())
		require.NoError(t, err, "algorithm %s", algo)
		assert.Equal(t, fp, parsed)
	}
}

func TestParse_BareToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Algorithm
		wantErr bool
	}{
		{name: "md5", input: "md5", want: MD5},
		{name: "md5lite", input: "md5lite", want: MD5Lite},
		{name: "mtime", input: "mtime", want: Mtime},
		{name: "timestamp alias", input: "timestamp", want: Mtime},
		{name: "ctime", input: "ctime", want: Ctime},
		{name: "mixed case", input: "MD5", want: MD5},
		{name: "unknown", input: "sha9000", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fp.Algorithm)
			assert.Empty(t, fp.Value, "bare token selects an algorithm with no value")
		})
	}
}

func TestParse_TaggedUnknownAlgorithm(t *testing.T) {
	_, err := Parse("{sha9000}abcdef")
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)
}

func TestNew_IdempotentTagging(t *testing.T) {
	once := New(MD5, "abc123")
	twice := New(MD5, once.String())
	assert.Equal(t, "{md5}abc123", twice.String(), "re-tagging must not double-wrap")
}

func TestEqual(t *testing.T) {
	a := New(MD5, "abc")
	assert.True(t, a.Equal(New(MD5, "abc")))
	assert.False(t, a.Equal(New(MD5, "def")))
	assert.False(t, a.Equal(New(MD5Lite, "abc")), "algorithms never compare across")
}

func TestEqual_NoChecksumNeverMatches(t *testing.T) {
	none := New(MD5, NoChecksum)
	assert.False(t, none.Equal(New(MD5, "abc")))
	assert.False(t, New(MD5, "abc").Equal(none))
	assert.False(t, none.Equal(none))
}

func TestIsTagged(t *testing.T) {
	assert.True(t, IsTagged("{md5}abc"))
	assert.True(t, IsTagged("{mtime}2024-01-01T00:00:00Z"))
	assert.False(t, IsTagged("md5"))
	assert.False(t, IsTagged("abc123"))
}
