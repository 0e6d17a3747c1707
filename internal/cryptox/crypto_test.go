package cryptox

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	for _, in := range []string{"", "a", "exactly-16-bytes", "user@x.com", "2099-01-01T00:00:00Z", "유니코드 ✓"} {
		enc, err := EncryptField(in, testKey)
		require.NoError(t, err)

		out, err := DecryptField(enc, testKey)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestEncryptField_Format(t *testing.T) {
	enc, err := EncryptField("token", testKey)
	require.NoError(t, err)

	iv, ct, ok := strings.Cut(enc, ":")
	require.True(t, ok)

	ivb, err := hex.DecodeString(iv)
	require.NoError(t, err)
	assert.Len(t, ivb, 16)

	ctb, err := hex.DecodeString(ct)
	require.NoError(t, err)
	assert.Equal(t, 16, len(ctb))
}

func TestEncryptField_FreshIVEachTime(t *testing.T) {
	a, err := EncryptField("same", testKey)
	require.NoError(t, err)
	b, err := EncryptField("same", testKey)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptField_WrongKey(t *testing.T) {
	enc, err := EncryptField("refresh-token-value", testKey)
	require.NoError(t, err)

	other := []byte("ffffffffffffffffffffffffffffffff")
	_, err = DecryptField(enc, other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecrypt))
}

func TestDecryptField_Malformed(t *testing.T) {
	cases := map[string]string{
		"no separator":  "abcdef",
		"bad iv hex":    "zz:00112233445566778899aabbccddeeff",
		"short iv":      "0011:00112233445566778899aabbccddeeff",
		"bad ct hex":    "00112233445566778899aabbccddeeff:xyz",
		"partial block": "00112233445566778899aabbccddeeff:0011",
		"empty ct":      "00112233445566778899aabbccddeeff:",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecryptField(in, testKey)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecrypt))
		})
	}
}

func TestDecryptField_EmptyIsEmpty(t *testing.T) {
	out, err := DecryptField("", testKey)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestNormalizeKey(t *testing.T) {
	k := NormalizeKey(testKey)
	assert.Equal(t, testKey, k)
	k[0] = 'X'
	assert.Equal(t, byte('0'), testKey[0], "must copy the caller's key")

	p1 := NormalizeKey([]byte("short passphrase"))
	p2 := NormalizeKey([]byte("short passphrase"))
	assert.Len(t, p1, KeySize)
	assert.Equal(t, p1, p2)
	assert.NotEqual(t, p1, NormalizeKey([]byte("another passphrase")))
}
