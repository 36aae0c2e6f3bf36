package authapi

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/go-faster/errors"
)

// Pair is an access/refresh token pair. The two tokens are always stored
// and cleared together.
type Pair struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

// TokenStore persists the session's token pair.
type TokenStore interface {
	Pair() Pair
	SetPair(p Pair) error
	Clear() error
}

// MemoryTokenStore keeps the token pair in memory only.
type MemoryTokenStore struct {
	mu   sync.Mutex
	pair Pair
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Pair() Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

func (s *MemoryTokenStore) SetPair(p Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = p
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.SetPair(Pair{})
}

// FileTokenStore persists the token pair as JSON in a single file.
// Writes are last-write-wins across processes; there is no cross-process
// lock. That matches the snapshot store's durability model: losing the
// latest write costs one re-authentication, nothing more.
type FileTokenStore struct {
	path string

	mu   sync.Mutex
	pair Pair
}

// NewFileTokenStore creates a FileTokenStore at path, loading any existing
// pair. A missing file starts the store empty; a corrupt file is an error.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	s := &FileTokenStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "read token file")
	}
	if err := json.Unmarshal(data, &s.pair); err != nil {
		return nil, errors.Wrap(err, "parse token file")
	}
	return s, nil
}

func (s *FileTokenStore) Pair() Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

func (s *FileTokenStore) SetPair(p Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = p
	return s.write()
}

func (s *FileTokenStore) Clear() error {
	return s.SetPair(Pair{})
}

// write must be called with s.mu held.
func (s *FileTokenStore) write() error {
	data, err := json.Marshal(s.pair)
	if err != nil {
		return errors.Wrap(err, "marshal token pair")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}
	return nil
}
