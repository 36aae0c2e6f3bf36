package session

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/authapi"
)

// Manager hands out per-session auth stores. Token pairs are persisted one
// file per session under TokenDir so a session survives a server restart;
// with no TokenDir, tokens live in memory only.
type Manager struct {
	baseURL  string
	tokenDir string
	lg       *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a Manager for the identity service at baseURL.
func NewManager(baseURL, tokenDir string, lg *zap.Logger) *Manager {
	return &Manager{
		baseURL:  baseURL,
		tokenDir: tokenDir,
		lg:       lg,
		stores:   make(map[string]*Store),
	}
}

// Get returns the auth store for sessionID, creating it on first use.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}

	tokens := m.tokenStore(sessionID)
	client := authapi.NewClient(m.baseURL, tokens)
	s := NewStore(client, m.lg)
	m.stores[sessionID] = s
	return s
}

func (m *Manager) tokenStore(sessionID string) authapi.TokenStore {
	if m.tokenDir == "" {
		return authapi.NewMemoryTokenStore()
	}
	path := filepath.Join(m.tokenDir, sessionID+".json")
	store, err := authapi.NewFileTokenStore(path)
	if err != nil {
		m.lg.Warn("token file unreadable, falling back to memory",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return authapi.NewMemoryTokenStore()
	}
	return store
}
