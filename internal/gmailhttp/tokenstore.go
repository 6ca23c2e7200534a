package gmailhttp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	keyringService = "mailpdf"
	keyringKey     = "gmail-token"
)

// ErrNoToken is returned by a TokenStore that holds no token yet.
var ErrNoToken = errors.New("no stored OAuth token")

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// FileStore keeps the token as JSON in a file.
type FileStore struct {
	Path string
}

func (s FileStore) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading token file %q", s.Path)
	}
	return decodeToken(b)
}

func (s FileStore) Save(tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "encoding token")
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrapf(err, "creating directory for token file %q", s.Path)
		}
	}
	if err := os.WriteFile(s.Path, b, 0o600); err != nil {
		return errors.Wrapf(err, "writing token file %q", s.Path)
	}
	return nil
}

// KeyringStore keeps the token in the OS keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore returns a KeyringStore using ring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// OpenKeyring opens the user's keyring.  Where no OS keyring is
// available the token is kept in an encrypted file under dir.
func OpenKeyring(dir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("mailpdf-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening keyring")
	}
	return NewKeyringStore(ring), nil
}

func (s *KeyringStore) Load() (*oauth2.Token, error) {
	item, err := s.ring.Get(keyringKey)
	if err == keyring.ErrKeyNotFound {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading token from keyring")
	}
	return decodeToken(item.Data)
}

func (s *KeyringStore) Save(tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "encoding token")
	}
	err = s.ring.Set(keyring.Item{
		Key:   keyringKey,
		Label: "mailpdf Gmail token",
		Data:  b,
	})
	if err != nil {
		return errors.Wrap(err, "writing token to keyring")
	}
	return nil
}

func decodeToken(b []byte) (*oauth2.Token, error) {
	tok := new(oauth2.Token)
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, errors.Wrap(err, "decoding stored token")
	}
	return tok, nil
}
