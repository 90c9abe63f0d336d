package session

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is a process-local Backend for tests and single-node development.
type MemoryStore struct {
	mu     sync.Mutex
	creds  map[string]string
	drafts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: map[string]string{}, drafts: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, sid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.creds[Key(sid)]
	if !ok {
		return "", ErrNoCredential
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, sid, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[Key(sid)] = credential
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := Key(sid)
	delete(m.creds, k)
	for dk := range m.drafts {
		if strings.HasPrefix(dk, k+"|") {
			delete(m.drafts, dk)
		}
	}
	return nil
}

func (m *MemoryStore) LoadDraft(_ context.Context, sid, form string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.drafts[Key(sid)+"|"+form]
	if !ok {
		return nil, ErrNoDraft
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) SaveDraft(_ context.Context, sid, form string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[Key(sid)+"|"+form] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryStore) DeleteDraft(_ context.Context, sid, form string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, Key(sid)+"|"+form)
	return nil
}
