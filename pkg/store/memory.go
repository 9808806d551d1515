package store

import (
	"context"
	"sync"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// MemoryStore はプロセス内にだけセッション一覧を保持します。
// 永続化を無効にした起動とテストで使います。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions []domain.Session
}

// NewMemoryStore は空の MemoryStore を返します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadAll は保持しているセッション一覧のコピーを返します。
func (m *MemoryStore) LoadAll(ctx context.Context) ([]domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.CloneSessions(m.sessions), nil
}

// ReplaceAll は保持しているセッション一覧を sessions のコピーで置き換えます。
func (m *MemoryStore) ReplaceAll(ctx context.Context, sessions []domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = domain.CloneSessions(sessions)
	return nil
}

// Close は何もしません。
func (m *MemoryStore) Close() error { return nil }
