package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		_, err := app.DB().NewQuery(`
			CREATE TABLE IF NOT EXISTS customers (
				id        TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				name      TEXT NOT NULL,
				phone     TEXT NOT NULL,
				notes     TEXT NOT NULL DEFAULT ''
			)
		`).Execute()
		if err != nil {
			return err
		}

		_, err = app.DB().NewQuery(`
			CREATE INDEX IF NOT EXISTS idx_customers_phone
			ON customers (tenant_id, phone)
		`).Execute()
		return err
	}, func(app core.App) error {
		_, err := app.DB().NewQuery(`DROP TABLE IF EXISTS customers`).Execute()
		return err
	})
}
