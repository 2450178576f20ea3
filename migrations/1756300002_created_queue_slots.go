package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("queue_slots")

		collection.Fields.Add(
			&core.TextField{Name: "station_id", Required: true},
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "swap_id", Required: true},
			&core.NumberField{Name: "position", Required: true, OnlyInt: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{
				"confirmed", "approaching", "active", "completed", "cancelled", "expired",
			}},
			&core.TextField{Name: "qr_token"},
			&core.NumberField{Name: "estimated_wait_minutes", OnlyInt: true},
			&core.DateField{Name: "completed_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_queue_slots_station_status", false, "station_id, status", "")
		collection.AddIndex("idx_queue_slots_user", false, "user_id, station_id, status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("queue_slots")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
