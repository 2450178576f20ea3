package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("qr_tokens")

		collection.Fields.Add(
			&core.TextField{Name: "token", Required: true},
			&core.TextField{Name: "swap_id", Required: true},
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "station_id", Required: true},
			&core.BoolField{Name: "used"},
			&core.DateField{Name: "used_at"},
			&core.DateField{Name: "expires_at", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_qr_tokens_token", true, "token", "")
		collection.AddIndex("idx_qr_tokens_expiry", false, "used, expires_at", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("qr_tokens")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
