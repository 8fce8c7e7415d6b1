package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastParams = Argon2Params{Memory: 64, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8}

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPasswordWithParams("s3cret", fastParams)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)
	assert.Len(t, strings.Split(hash, "$"), 6)

	again, err := HashPasswordWithParams("s3cret", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ per hash")
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestComparePassword(t *testing.T) {
	argonHash, err := HashPasswordWithParams("s3cret", fastParams)
	require.NoError(t, err)
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name    string
		hash    string
		plain   string
		wantErr error
	}{
		{name: "argon2 match", hash: argonHash, plain: "s3cret"},
		{name: "argon2 mismatch", hash: argonHash, plain: "S3cret", wantErr: ErrPasswordMismatch},
		{name: "bcrypt match", hash: string(bcryptHash), plain: "s3cret"},
		{name: "bcrypt mismatch", hash: string(bcryptHash), plain: "nope", wantErr: ErrPasswordMismatch},
		{name: "unknown format", hash: "md5:abcdef", plain: "s3cret", wantErr: ErrUnknownHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ComparePassword(tt.hash, tt.plain)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestComparePassword_UsesStoredParameters(t *testing.T) {
	// hashed with non-default parameters, compared without passing them
	params := Argon2Params{Memory: 128, Time: 2, Threads: 2, KeyLen: 24, SaltLen: 12}
	hash, err := HashPasswordWithParams("pw", params)
	require.NoError(t, err)

	require.NoError(t, ComparePassword(hash, "pw"))

	decoded, salt, key, err := decodeArgon2Hash(hash)
	require.NoError(t, err)
	assert.Equal(t, params, decoded)
	assert.Len(t, salt, 12)
	assert.Len(t, key, 24)
}

func TestDecodeArgon2Hash_Malformed(t *testing.T) {
	for _, encoded := range []string{
		"$argon2id$v=19$m=64,t=1,p=1$onlysalt",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=0,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		_, _, _, err := decodeArgon2Hash(encoded)
		assert.Error(t, err, encoded)

		assert.NotPanics(t, func() {
			err = ComparePassword(encoded, "password")
		}, encoded)
		assert.Error(t, err, encoded)
		assert.NotErrorIs(t, err, ErrPasswordMismatch, encoded)
	}
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "=")
}
