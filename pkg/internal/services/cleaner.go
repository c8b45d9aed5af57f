package services

import (
	"time"

	"github.com/cadencehq/beacon/pkg/internal/database"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

func DoAutoDatabaseCleanup() {
	deadline := time.Now().Add(-60 * time.Minute)
	log.Debug().Time("deadline", deadline).Msg("Now cleaning up entire database...")

	// Deal soft-deletion
	var count int64
	for _, model := range database.AutoMaintainRange {
		tx := database.C.Unscoped().Delete(model, "deleted_at <= ?", deadline)
		if tx.Error != nil {
			log.Error().Err(tx.Error).Msg("An error occurred when running database cleanup...")
		}
		count += tx.RowsAffected
	}

	log.Debug().Int64("affected", count).Msg("Clean up entire database accomplished.")
}

// DoSignalingSweep runs the in-memory expiries: empty channels past grace,
// stale tracker entries.
func DoSignalingSweep() {
	reaped := Channels.SweepEmpty()
	for _, channelId := range reaped {
		if err := database.C.Where("alias = ?", channelId).
			Delete(&models.Channel{}).Error; err != nil {
			log.Warn().Err(err).Str("channel", channelId).Msg("Unable to reap channel descriptor...")
		}
	}
	expired := Tracker.Sweep()

	if len(reaped) > 0 || expired > 0 {
		log.Debug().Int("channels", len(reaped)).Int("outcomes", expired).
			Msg("Signaling sweep accomplished.")
	}
}
