// Package localstore is the client's persistent key/value storage, the
// moral equivalent of browser localStorage: one JSON value per key, kept
// in files under a data directory.
package localstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// Keys used by the storefront client.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCart         = "cart"
)

// SelectedVariantKey holds the last chosen variant for a product, so cart
// commands on that product don't have to repeat the choice.
func SelectedVariantKey(productID int64) string {
	return "selected_variant_" + strconv.FormatInt(productID, 10)
}

var ErrNotFound = errors.New("localstore: key not found")

var unsafeKey = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, unsafeKey.ReplaceAllString(key, "_")+".json")
}

// Get unmarshals the stored value for key into v.
func (s *Store) Get(key string, v any) error {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Set writes the value atomically: marshal to a temp file, then rename over
// the target, so a crash never leaves a half-written value.
func (s *Store) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+unsafeKey.ReplaceAllString(key, "_")+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Delete is a no-op for missing keys.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// GetString and SetString cover the plain-string keys (tokens).
func (s *Store) GetString(key string) (string, error) {
	var v string
	err := s.Get(key, &v)
	return v, err
}

func (s *Store) SetString(key, value string) error {
	return s.Set(key, value)
}
