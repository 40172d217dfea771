package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

// DefaultRetention is how long service_logs rows are kept.
const DefaultRetention = 30 * 24 * time.Hour

// StartCleanup purges service_logs rows older than retention once at start
// and then daily, until done is closed.
func StartCleanup(db *gorm.DB, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			purge(db, retention)
			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	}()
}

func purge(db *gorm.DB, retention time.Duration) {
	deleted, err := purgeOlderThan(db, time.Now().Add(-retention))
	if err != nil {
		slog.Warn("log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}

func purgeOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.ServiceLog{})
	return result.RowsAffected, result.Error
}
