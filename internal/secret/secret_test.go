package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_KnownVector(t *testing.T) {
	// sha256("password")
	assert.Equal(t,
		"5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
		Hash("password"))
}

func TestHash_Empty(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Hash(""))
}

func TestHash_Deterministic(t *testing.T) {
	h1 := Hash("correct horse battery staple")
	h2 := Hash("correct horse battery staple")

	assert.Equal(t, h1, h2, "Hash must be deterministic")
	assert.Len(t, h1, DigestLength)
	assert.True(t, ValidDigest(h1))
}

func TestHash_DifferentInputs(t *testing.T) {
	assert.NotEqual(t, Hash("phrase-one"), Hash("phrase-two"))
	assert.NotEqual(t, Hash("Password"), Hash("password"), "hashing is case-sensitive")
}

func TestHash_Unicode(t *testing.T) {
	h := Hash("日記のひみつ")
	assert.Len(t, h, DigestLength)
	assert.True(t, ValidDigest(h))
}

func TestVerify(t *testing.T) {
	digest := Hash("hunter22")

	assert.True(t, Verify("hunter22", digest))
	assert.False(t, Verify("hunter23", digest))
	assert.False(t, Verify("", digest))
}

func TestVerify_EmptyDigest(t *testing.T) {
	assert.False(t, Verify("", ""), "empty digest means uninitialized and never verifies")
	assert.False(t, Verify("anything", ""))
}

func TestValidDigest(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"hash output", Hash("x"), true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"uppercase", "5E884898DA28047151D0E56F8DC6292773603D0D6AABBDD62A11EF721D1542D8", false},
		{"non hex", "zz884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDigest(tt.in))
		})
	}
}
