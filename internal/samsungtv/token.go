package samsungtv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the single pairing token of one endpoint.
type TokenStore interface {
	// Load returns the stored token. A missing or unreadable backing
	// reports false and is not an error.
	Load(ctx context.Context) (string, bool)

	// Save stores token, replacing any previous value.
	Save(ctx context.Context, token string) error
}

const (
	tokenDirPermissions  = 0750
	tokenFilePermissions = 0600
)

// TokenFileName returns the token file name for a TV host, e.g.
// frame_art_192_168_1_50_token.txt.
func TokenFileName(host string) string {
	return "frame_art_" + strings.ReplaceAll(host, ".", "_") + "_token.txt"
}

// FileTokenStore keeps the token in a plaintext file holding exactly the
// token string. When the file cannot be written the token is held in
// memory for the rest of the process.
type FileTokenStore struct {
	path   string
	logger Logger

	mu       sync.Mutex
	fallback string
	inMemory bool
}

// NewFileTokenStore returns a store for host's token file inside dir.
func NewFileTokenStore(dir, host string, logger Logger) *FileTokenStore {
	return &FileTokenStore{
		path:   filepath.Join(dir, TokenFileName(host)),
		logger: orNop(logger),
	}
}

// Path returns the token file path.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads the token file.
func (s *FileTokenStore) Load(_ context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inMemory {
		return s.fallback, s.fallback != ""
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("token file unavailable", "path", s.path, "error", err)
		return "", false
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

// Save writes the token file with owner-only permissions.
func (s *FileTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.MkdirAll(filepath.Dir(s.path), tokenDirPermissions)
	if err == nil {
		err = os.WriteFile(s.path, []byte(token), tokenFilePermissions)
	}
	if err != nil {
		s.fallback = token
		s.inMemory = true
		s.logger.Error("saving token failed, keeping it in memory", "path", s.path, "error", err)
		return fmt.Errorf("%w: %w", ErrTokenPersist, err)
	}

	s.fallback = ""
	s.inMemory = false
	return nil
}

// MemoryTokenStore holds the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore returns a store seeded with token, which may be empty.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

// Load returns the held token.
func (s *MemoryTokenStore) Load(_ context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Save replaces the held token.
func (s *MemoryTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}
