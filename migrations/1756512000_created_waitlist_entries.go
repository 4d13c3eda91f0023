package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		_, err := app.DB().NewQuery(`
			CREATE TABLE IF NOT EXISTS waitlist_entries (
				id            TEXT PRIMARY KEY,
				tenant_id     TEXT NOT NULL,
				customer_name TEXT NOT NULL,
				phone         TEXT NOT NULL,
				party_size    INTEGER NOT NULL,
				notes         TEXT NOT NULL DEFAULT '',
				confirm_code  TEXT NOT NULL DEFAULT '',
				status        TEXT NOT NULL DEFAULT 'waiting',
				created_at    INTEGER NOT NULL,
				called_at     INTEGER,
				seated_at     INTEGER,
				cancelled_at  INTEGER,
				no_show_at    INTEGER
			)
		`).Execute()
		if err != nil {
			return err
		}

		// Serves the FIFO active-list query.
		_, err = app.DB().NewQuery(`
			CREATE INDEX IF NOT EXISTS idx_waitlist_entries_active
			ON waitlist_entries (tenant_id, status, created_at)
		`).Execute()
		return err
	}, func(app core.App) error {
		_, err := app.DB().NewQuery(`DROP TABLE IF EXISTS waitlist_entries`).Execute()
		return err
	})
}
