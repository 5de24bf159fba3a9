package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/nacl/secretbox"
)

// TokenStore persists the bearer token, the only durable client state.
// Load returns an empty token when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

const nonceSize = 24

// FileTokenStore keeps the token in a single file, sealed with secretbox when
// a secret is configured.
type FileTokenStore struct {
	path   string
	key    *[32]byte
	logger *zap.Logger
}

// NewFileTokenStore constructs a file-backed token store.
func NewFileTokenStore(path, secret string, logger *zap.Logger) *FileTokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &FileTokenStore{path: path, logger: logger}
	if secret != "" {
		key := sha256.Sum256([]byte(secret))
		store.key = &key
	}
	return store
}

// Load reads the stored token.
func (s *FileTokenStore) Load(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	if s.key == nil {
		return strings.TrimSpace(string(raw)), nil
	}
	if len(raw) < nonceSize {
		return "", errors.New("token file is truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, s.key)
	if !ok {
		return "", errors.New("token file cannot be opened with the configured secret")
	}
	return string(plain), nil
}

// Save replaces the stored token.
func (s *FileTokenStore) Save(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	payload := []byte(token)
	if s.key != nil {
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return fmt.Errorf("generate nonce: %w", err)
		}
		payload = secretbox.Seal(nonce[:], payload, &nonce, s.key)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token succeeds.
func (s *FileTokenStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
