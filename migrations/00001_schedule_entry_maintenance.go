package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upScheduleEntryMaintenance, downScheduleEntryMaintenance)
}

func upScheduleEntryMaintenance(tx *sql.Tx) error {
	// Index for the boot-time rehydration scan, which reads entries ordered
	// by fire time.
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_schedule_entries_fire_at ON schedule_entries (fire_at)`); err != nil {
		return fmt.Errorf("failed to create fire_at index: %w", err)
	}

	// Drop rows whose fire time passed while no process was running; their
	// notification window is gone and rehydration would discard them anyway.
	if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE fire_at < NOW()`); err != nil {
		return fmt.Errorf("failed to prune stale schedule entries: %w", err)
	}

	return nil
}

func downScheduleEntryMaintenance(tx *sql.Tx) error {
	if _, err := tx.Exec(`DROP INDEX IF EXISTS idx_schedule_entries_fire_at`); err != nil {
		return fmt.Errorf("failed to drop fire_at index: %w", err)
	}
	return nil
}
