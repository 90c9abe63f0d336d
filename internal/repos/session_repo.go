package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a row does not exist or has expired.
var ErrNotFound = errors.New("not found")

type SessionRow struct {
	ID         string `db:"id"`
	Credential string `db:"credential"`
	CreatedAt  int64  `db:"created_at"`
	ExpiresAt  int64  `db:"expires_at"`
}

type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// Put stores the credential for a hashed session id, replacing any previous one.
func (r *SessionRepo) Put(ctx context.Context, id, credential string, ttl time.Duration) error {
	now := time.Now()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sessions WHERE id=?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO sessions(id,credential,created_at,expires_at)
		VALUES(?,?,?,?)`), id, credential, now.Unix(), now.Add(ttl).Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SessionRepo) Get(ctx context.Context, id string) (SessionRow, error) {
	var row SessionRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id,credential,created_at,expires_at
		FROM sessions
		WHERE id=? AND expires_at > ?`), id, time.Now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return row, ErrNotFound
	}
	return row, err
}

// Delete removes the session and every draft it owns.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM drafts WHERE session_id=?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sessions WHERE id=?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

// Sweep deletes expired sessions and drafts untouched for longer than ttl.
func (r *SessionRepo) Sweep(ctx context.Context, ttl time.Duration) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now.Unix())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM drafts WHERE updated_at <= ?`), now.Add(-ttl).Unix()); err != nil {
		return n, err
	}
	return n, nil
}
