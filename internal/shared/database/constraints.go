package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Exclusion constraint is the real serialization point for the
	// (staff, date, time-window) slot: two live bookings for the same staff
	// member on the same date must not have overlapping [start,end) ranges.
	// The availability rule engine is only a fast pre-check.
	err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist;`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'excl_staff_slot_overlap'
			) THEN
				ALTER TABLE bookings
				ADD CONSTRAINT excl_staff_slot_overlap
				EXCLUDE USING gist (
					staff_member_id WITH =,
					scheduled_date WITH =,
					int4range(start_minute, end_minute) WITH &&
				)
				WHERE (staff_member_id IS NOT NULL AND status IN ('pending', 'confirmed', 'rescheduled'));
			END IF;
		END
		$$;
	`).Error
	if err != nil {
		return err
	}

	// One customer record per (store, email); the saga upserts against this.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_customers_store_email
		ON customers (store_id, lower(email));
	`).Error
	if err != nil {
		return err
	}

	// Webhook ledger: one row per (provider, transaction, status) so duplicate
	// deliveries collapse into a no-op at the persistence layer.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_webhook_events_provider_txn_status
		ON webhook_events (provider, external_transaction_id, status);
	`).Error
	if err != nil {
		return err
	}

	// Index for day-schedule lookups used by the availability checks
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_offering_date
		ON bookings (service_offering_id, scheduled_date);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
