package session

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"freshbasket/internal/repos"
)

// SQLStore keeps sessions in the back-office database (sqlite, postgres or mysql).
type SQLStore struct {
	sessions *repos.SessionRepo
	drafts   *repos.DraftRepo
	ttl      time.Duration
}

func NewSQLStore(db *sqlx.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{sessions: repos.NewSessionRepo(db), drafts: repos.NewDraftRepo(db), ttl: ttl}
}

func (s *SQLStore) Get(ctx context.Context, sid string) (string, error) {
	row, err := s.sessions.Get(ctx, Key(sid))
	if errors.Is(err, repos.ErrNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", err
	}
	return row.Credential, nil
}

func (s *SQLStore) Set(ctx context.Context, sid, credential string) error {
	return s.sessions.Put(ctx, Key(sid), credential, s.ttl)
}

func (s *SQLStore) Clear(ctx context.Context, sid string) error {
	return s.sessions.Delete(ctx, Key(sid))
}

func (s *SQLStore) LoadDraft(ctx context.Context, sid, form string) ([]byte, error) {
	b, err := s.drafts.Load(ctx, Key(sid), form)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrNoDraft
	}
	return b, err
}

func (s *SQLStore) SaveDraft(ctx context.Context, sid, form string, body []byte) error {
	return s.drafts.Save(ctx, Key(sid), form, body)
}

func (s *SQLStore) DeleteDraft(ctx context.Context, sid, form string) error {
	return s.drafts.Delete(ctx, Key(sid), form)
}

// Sweep removes expired sessions and stale drafts.
func (s *SQLStore) Sweep(ctx context.Context) (int64, error) {
	return s.sessions.Sweep(ctx, s.ttl)
}
