package repos

import (
	"context"
	"fmt"
	"log"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlx driver names per DB_DRIVER value.
var driverNames = map[string]string{
	"sqlite":   "sqlite",
	"postgres": "postgres",
	"mysql":    "mysql",
}

// OpenDB opens the back-office database (sessions and form drafts) and
// creates its tables.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	name, ok := driverNames[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	if name == "sqlite" {
		// one connection keeps :memory: databases shared and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("[db] %s ready", name)
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		// id is the BLAKE2b hash of the sid cookie, never the cookie itself
		`CREATE TABLE IF NOT EXISTS sessions(
  id VARCHAR(64) PRIMARY KEY,
  credential TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  expires_at BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS drafts(
  session_id VARCHAR(64) NOT NULL,
  form VARCHAR(64) NOT NULL,
  body TEXT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (session_id, form)
)`,
	}
	if db.DriverName() != "mysql" {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
			`CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(updated_at)`,
		)
	}
	// mysql rejects multi-statement Exec by default
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
