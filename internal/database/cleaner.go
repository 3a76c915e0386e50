package database

import (
	"context"
	"os"
	"time"

	"gorm.io/gorm"

	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

/*
Storage maintenance for the self-hosted gallery store.

The file is not shrunk right after deletions: SQLite reuses freed pages for new
uploads. Each run compares the physical size (db + wal) against the limit:

  - VACUUM when the file is over the limit but more than half of it is empty.
  - PRUNE when the file is over the limit and full of data: the oldest images are
    deleted in batches of 50 until the data drops to 85% of the limit.
*/

// Cleaner keeps the gallery database below a storage ceiling.
type Cleaner struct {
	DB       *gorm.DB
	Path     string
	Limit    int64
	Interval time.Duration

	// OnPrune is told about every removed batch so callers can invalidate caches.
	OnPrune func(ids []string, freed int64)
}

// Run blocks until ctx is cancelled. It checks once immediately on start.
func (c *Cleaner) Run(ctx context.Context) {
	interval := c.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	logger.LogInfo("Storage Cleaner started. Limit: %s, Interval: %s", utils.FormatBytes(c.Limit), interval)

	c.CheckAndPrune(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAndPrune(ctx)
		}
	}
}

// CheckAndPrune analyzes the database size and vacuums or prunes. It returns the
// number of deleted images.
func (c *Cleaner) CheckAndPrune(ctx context.Context) int {
	fileInfo, err := os.Stat(c.Path)
	if err != nil {
		logger.LogError("Cleaner failed to stat DB file: %v", err)
		return 0
	}

	physicalSize := fileInfo.Size()
	if walInfo, err := os.Stat(c.Path + "-wal"); err == nil {
		physicalSize += walInfo.Size()
	}

	if physicalSize < c.Limit {
		return 0
	}

	db := c.DB.WithContext(ctx)

	var logicalSize int64
	row := db.Model(&Image{}).Select("IFNULL(SUM(size), 0)").Row()
	if err := row.Scan(&logicalSize); err != nil {
		logger.LogError("Failed to calculate logical size: %v", err)
		return 0
	}

	emptySpace := physicalSize - logicalSize
	isBloated := float64(emptySpace) > (float64(physicalSize) * 0.50)

	logger.LogInfo("Storage Analysis - Phys: %s | Logic: %s | Free: %s",
		utils.FormatBytes(physicalSize),
		utils.FormatBytes(logicalSize),
		utils.FormatBytes(emptySpace))

	if isBloated && logicalSize < c.Limit {
		logger.LogWarn("DB is bloated (>50%% empty). Starting VACUUM to reclaim space...")

		db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")

		startTime := time.Now()
		if err := db.Exec("VACUUM;").Error; err != nil {
			logger.LogError("VACUUM failed: %v", err)
		} else {
			logger.LogInfo("VACUUM completed in %v.", time.Since(startTime))
		}
		return 0
	}

	return c.prune(ctx, logicalSize)
}

func (c *Cleaner) prune(ctx context.Context, logicalSize int64) int {
	targetSize := int64(float64(c.Limit) * 0.85)
	bytesToRemove := logicalSize - targetSize
	if bytesToRemove <= 0 {
		return 0
	}

	logger.LogInfo("Storage limit reached. Pruning ~%s of old images...", utils.FormatBytes(bytesToRemove))

	db := c.DB.WithContext(ctx)
	deletedCount := 0
	var freedBytes int64
	loopGuard := 0

	for freedBytes < bytesToRemove && loopGuard < 1000 {
		loopGuard++
		var images []Image

		if err := db.Select("public_id, size").Order("created_at ASC").Limit(50).Find(&images).Error; err != nil {
			logger.LogError("Prune fetch failed: %v", err)
			break
		}
		if len(images) == 0 {
			break
		}

		ids := make([]string, 0, len(images))
		var batchBytes int64
		for _, img := range images {
			ids = append(ids, img.PublicID)
			batchBytes += img.Size
			if freedBytes+batchBytes >= bytesToRemove {
				break
			}
		}

		if err := db.Where("public_id IN ?", ids).Delete(&Image{}).Error; err != nil {
			logger.LogError("Prune delete failed: %v", err)
			break
		}

		freedBytes += batchBytes
		deletedCount += len(ids)
		if c.OnPrune != nil {
			c.OnPrune(ids, batchBytes)
		}

		select {
		case <-ctx.Done():
			return deletedCount
		case <-time.After(50 * time.Millisecond):
		}
	}

	logger.LogInfo("Pruning complete. Removed %d images.", deletedCount)
	return deletedCount
}
