package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("stations")

		collection.Fields.Add(
			&core.TextField{Name: "name", Required: true},
			&core.NumberField{Name: "latitude", Required: true},
			&core.NumberField{Name: "longitude", Required: true},
			&core.NumberField{Name: "capacity", OnlyInt: true},
			&core.BoolField{Name: "is_active"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_stations_is_active", false, "is_active", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("stations")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
