// Package tokens persists the bimio session (access token, refresh token,
// account email and refresh-token expiry) in an encrypted JSON file.
//
// Every field is encrypted on its own with a fresh IV, which keeps the file
// format readable by earlier bimio releases. A missing file is the normal
// "logged out" state and is never reported as an error.
package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hitbim/bimio/internal/cryptox"
)

// FileName is the name of the session file inside the bimio data directory.
const FileName = "tokens.json"

// ErrCorrupt is returned when the session file exists but cannot be parsed
// or decrypted.
var ErrCorrupt = errors.New("token file is corrupt")

// Record is the decrypted session.
type Record struct {
	AccessToken  string
	RefreshToken string
	Email        string
	Expires      string
}

// fileRecord is the on-disk shape; every value is "hex(iv):hex(ciphertext)".
type fileRecord struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email"`
	Expires      string `json:"expires"`
}

// Store reads and writes the session file. It is not safe for use by several
// processes at once; bimio runs one command per process.
type Store struct {
	path string
	key  []byte
}

// NewStore returns a Store for the file at path. The secret is normalized to
// an AES-256 key with cryptox.NormalizeKey.
func NewStore(path string, secret []byte) *Store {
	return &Store{path: path, key: cryptox.NormalizeKey(secret)}
}

// Path returns the location of the session file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored record, or nil when there is none.
func (s *Store) Get() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var rec Record
	fields := []struct {
		name string
		in   string
		out  *string
	}{
		{"accessToken", fr.AccessToken, &rec.AccessToken},
		{"refreshToken", fr.RefreshToken, &rec.RefreshToken},
		{"email", fr.Email, &rec.Email},
		{"expires", fr.Expires, &rec.Expires},
	}
	for _, f := range fields {
		v, err := cryptox.DecryptField(f.in, s.key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, f.name, err)
		}
		*f.out = v
	}

	return &rec, nil
}

// Set overwrites the stored record.
func (s *Store) Set(rec Record) error {
	var fr fileRecord
	fields := []struct {
		in  string
		out *string
	}{
		{rec.AccessToken, &fr.AccessToken},
		{rec.RefreshToken, &fr.RefreshToken},
		{rec.Email, &fr.Email},
		{rec.Expires, &fr.Expires},
	}
	for _, f := range fields {
		v, err := cryptox.EncryptField(f.in, s.key)
		if err != nil {
			return fmt.Errorf("encrypt token field: %w", err)
		}
		*f.out = v
	}

	data, err := json.Marshal(fr)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	// write-then-rename so a crash never leaves a half-written session
	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Remove deletes the stored record. It reports whether a file was removed.
func (s *Store) Remove() (bool, error) {
	err := os.Remove(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("remove %s: %w", s.path, err)
}
