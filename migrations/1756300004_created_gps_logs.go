package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("gps_logs")

		collection.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.NumberField{Name: "latitude", Required: true},
			&core.NumberField{Name: "longitude", Required: true},
			&core.NumberField{Name: "speed"},
			&core.NumberField{Name: "heading"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_gps_logs_user_created", false, "user_id, created", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("gps_logs")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
