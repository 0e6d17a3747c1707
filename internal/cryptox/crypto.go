// Package cryptox holds the symmetric crypto used to keep the session file
// unreadable at rest.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length.
const KeySize = 32

var ErrDecrypt = errors.New("decryption failed")

// keySalt is fixed on purpose: the same passphrase must always yield the same
// key, otherwise an existing session file could never be read back.
var keySalt = []byte("bimio-token-store")

// NormalizeKey returns a 32-byte AES key. A secret that already has the right
// length is used as is (this keeps files written by older clients readable);
// anything else is treated as a passphrase and stretched with argon2id.
func NormalizeKey(secret []byte) []byte {
	if len(secret) == KeySize {
		k := make([]byte, KeySize)
		copy(k, secret)
		return k
	}
	return argon2.IDKey(secret, keySalt, 1, 64*1024, 4, KeySize)
}

// EncryptField encrypts text with AES-256-CBC under a fresh random IV and
// returns "hex(iv):hex(ciphertext)".
func EncryptField(text string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	plaintext := pad([]byte(text), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptField reverses EncryptField. An empty input decodes to an empty
// string. Malformed input, a wrong key or a tampered ciphertext yield an
// error wrapping ErrDecrypt.
func DecryptField(value string, key []byte) (string, error) {
	if value == "" {
		return "", nil
	}

	ivHex, ctHex, ok := strings.Cut(value, ":")
	if !ok {
		return "", fmt.Errorf("%w: missing iv separator", ErrDecrypt)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: bad iv", ErrDecrypt)
	}
	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrDecrypt)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecrypt)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid text", ErrDecrypt)
	}
	return string(plaintext), nil
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrDecrypt)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
		}
	}
	return b[:len(b)-n], nil
}
