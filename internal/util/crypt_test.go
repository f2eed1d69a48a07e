package util

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {

	t.Run("Base64", func(t *testing.T) {
		v := Encode("telegram-token:123")
		require.NoError(t, Decode(&v))
		assert.Equal(t, "telegram-token:123", v)
	})

	t.Run("Empty", func(t *testing.T) {
		v := ""
		assert.NoError(t, Decode(&v))
		assert.Equal(t, "", v)
		assert.NoError(t, Decode(nil))
	})

	t.Run("Invalid", func(t *testing.T) {
		v := "%%%"
		assert.Error(t, Decode(&v))
		assert.Equal(t, "%%%", v)
	})
}

func TestSealOpen(t *testing.T) {

	sealed, err := Seal("passphrase", "db-password")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))

	t.Run("RoundTrip", func(t *testing.T) {
		plain, err := Open("passphrase", sealed)
		require.NoError(t, err)
		assert.Equal(t, "db-password", plain)
	})

	t.Run("NonceDiffers", func(t *testing.T) {
		again, err := Seal("passphrase", "db-password")
		require.NoError(t, err)
		assert.NotEqual(t, sealed, again)
	})

	t.Run("WrongKey", func(t *testing.T) {
		_, err := Open("other", sealed)
		assert.Error(t, err)
	})

	t.Run("Tampered", func(t *testing.T) {
		b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
		require.NoError(t, err)
		b[len(b)-1] ^= 0x01

		_, err = Open("passphrase", SealedPrefix+base64.StdEncoding.EncodeToString(b))
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := Open("passphrase", "plain-text")
		assert.Error(t, err)

		_, err = Open("passphrase", SealedPrefix+"%%%")
		assert.Error(t, err)

		_, err = Open("passphrase", SealedPrefix+"AAAA")
		assert.Error(t, err)

		_, err = Seal("", "x")
		assert.Error(t, err)
	})

	assert.False(t, IsSealed(strings.TrimPrefix(sealed, SealedPrefix)))
}

/*
export key=""
export plain=""
지정 후 go test ./internal/util -run TestSealSecret -v 로 config.yaml 에 넣을 값 생성
*/
func TestSealSecret(t *testing.T) {
	key, plain := os.Getenv("key"), os.Getenv("plain")
	if key == "" || plain == "" {
		t.Skip("key and plain not set")
	}

	sealed, err := Seal(key, plain)
	require.NoError(t, err)
	t.Logf("sealed: %s\n", sealed)
}
