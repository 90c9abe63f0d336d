package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// DraftRepo keeps unsaved form drafts per session so that multi-step edits
// (add variant, add tag) survive between requests.
type DraftRepo struct{ db *sqlx.DB }

func NewDraftRepo(db *sqlx.DB) *DraftRepo { return &DraftRepo{db: db} }

func (r *DraftRepo) Save(ctx context.Context, sessionID, form string, body []byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM drafts WHERE session_id=? AND form=?`), sessionID, form); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO drafts(session_id,form,body,updated_at)
		VALUES(?,?,?,?)`), sessionID, form, string(body), time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DraftRepo) Load(ctx context.Context, sessionID, form string) ([]byte, error) {
	var body string
	err := r.db.GetContext(ctx, &body, r.db.Rebind(`SELECT body FROM drafts WHERE session_id=? AND form=?`), sessionID, form)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (r *DraftRepo) Delete(ctx context.Context, sessionID, form string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM drafts WHERE session_id=? AND form=?`), sessionID, form)
	return err
}
