package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		_, err := app.DB().NewQuery(`
			CREATE TABLE IF NOT EXISTS restaurant_settings (
				tenant_id             TEXT PRIMARY KEY,
				waiting_alert_min     INTEGER NOT NULL DEFAULT 0,
				called_alert_min      INTEGER NOT NULL DEFAULT 0,
				estimation_window_min INTEGER NOT NULL DEFAULT 120
			)
		`).Execute()
		return err
	}, func(app core.App) error {
		_, err := app.DB().NewQuery(`DROP TABLE IF EXISTS restaurant_settings`).Execute()
		return err
	})
}
