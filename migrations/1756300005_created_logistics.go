package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// The logistics collections travel together: transport jobs move batteries,
// staff assignments cover stations, tickets track faults, and the credit
// ledger records what the other three pay out.
func init() {
	m.Register(func(app core.App) error {
		jobs := core.NewBaseCollection("transport_jobs")
		jobs.Fields.Add(
			&core.TextField{Name: "from_location", Required: true},
			&core.TextField{Name: "to_location", Required: true},
			&core.JSONField{Name: "battery_ids"},
			&core.NumberField{Name: "battery_count", OnlyInt: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{
				"pending", "assigned", "in_transit", "delivered", "cancelled",
			}},
			&core.NumberField{Name: "priority", OnlyInt: true},
			&core.TextField{Name: "assigned_transporter_id"},
			&core.NumberField{Name: "credits_earned", OnlyInt: true},
			&core.DateField{Name: "accepted_at"},
			&core.DateField{Name: "completed_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		jobs.AddIndex("idx_transport_jobs_status", false, "status, priority", "")
		if err := app.Save(jobs); err != nil {
			return err
		}

		staff := core.NewBaseCollection("staff_assignments")
		staff.Fields.Add(
			&core.TextField{Name: "staff_id", Required: true},
			&core.TextField{Name: "station_id", Required: true},
			&core.DateField{Name: "shift_start"},
			&core.DateField{Name: "shift_end"},
			&core.BoolField{Name: "is_active"},
			&core.DateField{Name: "diverted_at"},
			&core.TextField{Name: "diversion_reason"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		staff.AddIndex("idx_staff_assignments_staff", false, "staff_id, is_active", "")
		staff.AddIndex("idx_staff_assignments_station", false, "station_id, is_active", "")
		if err := app.Save(staff); err != nil {
			return err
		}

		batteries := core.NewBaseCollection("batteries")
		batteries.Fields.Add(
			&core.TextField{Name: "battery_id", Required: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{
				"available", "in_use", "charging", "in_transit", "faulty",
			}},
			&core.TextField{Name: "current_location"},
			&core.TextField{Name: "assigned_user_id"},
			&core.NumberField{Name: "charge_level", OnlyInt: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		batteries.AddIndex("idx_batteries_battery_id", true, "battery_id", "")
		if err := app.Save(batteries); err != nil {
			return err
		}

		tickets := core.NewBaseCollection("tickets")
		tickets.Fields.Add(
			&core.TextField{Name: "ticket_number", Required: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{
				"open", "in_progress", "resolved", "closed",
			}},
			&core.TextField{Name: "related_entity_type"},
			&core.TextField{Name: "related_entity_id"},
			&core.TextField{Name: "fault_level"},
			&core.TextField{Name: "title"},
			&core.TextField{Name: "description"},
			&core.NumberField{Name: "priority", OnlyInt: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		tickets.AddIndex("idx_tickets_number", true, "ticket_number", "")
		if err := app.Save(tickets); err != nil {
			return err
		}

		ledger := core.NewBaseCollection("credit_ledger")
		ledger.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.NumberField{Name: "amount", Required: true, OnlyInt: true},
			&core.TextField{Name: "type", Required: true},
			&core.TextField{Name: "related_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		ledger.AddIndex("idx_credit_ledger_user", false, "user_id, created", "")
		return app.Save(ledger)
	}, func(app core.App) error {
		for _, name := range []string{"credit_ledger", "tickets", "batteries", "staff_assignments", "transport_jobs"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				return err
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
