// Package session guards the back-office: it keeps the admin credential and
// unsaved form drafts for each browser session and redirects anonymous or
// expired sessions to the login page.
package session

import (
	"context"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrNoCredential = errors.New("no credential for session")
	ErrNoDraft      = errors.New("no draft for form")
)

// Store holds the credential of each session. It is injected into the guard
// and handlers; nothing reads credentials from ambient state.
type Store interface {
	Get(ctx context.Context, sid string) (string, error)
	Set(ctx context.Context, sid, credential string) error
	// Clear removes the credential and every draft of the session.
	Clear(ctx context.Context, sid string) error
}

// Drafts holds unsaved form drafts per session and form key.
type Drafts interface {
	LoadDraft(ctx context.Context, sid, form string) ([]byte, error)
	SaveDraft(ctx context.Context, sid, form string, body []byte) error
	DeleteDraft(ctx context.Context, sid, form string) error
}

// Backend is what the application needs from a storage implementation.
type Backend interface {
	Store
	Drafts
}

// Key is the at-rest identifier of a session: the hex BLAKE2b-256 digest of
// the cookie value.
func Key(sid string) string {
	sum := blake2b.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:])
}
