package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("swaps")

		collection.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "station_id", Required: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{
				"pending", "confirmed", "approaching", "active", "completed", "cancelled", "failed",
			}},
			&core.TextField{Name: "qr_token"},
			&core.TextField{Name: "staff_id"},
			&core.TextField{Name: "old_battery_id"},
			&core.TextField{Name: "new_battery_id"},
			&core.DateField{Name: "started_at"},
			&core.DateField{Name: "completed_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_swaps_user_status", false, "user_id, status", "")
		collection.AddIndex("idx_swaps_station_status", false, "station_id, status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("swaps")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
