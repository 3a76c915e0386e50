package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"storefront/pkg/logger"
)

// Open connects to the SQLite gallery store with performance-tuned settings (WAL mode),
// creating the parent directory and running migrations.
func Open(dbPath string) (*gorm.DB, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	// WAL mode enables concurrent readers and a single writer without locking the entire file.
	// busy_timeout makes the driver wait for the lock instead of failing immediately.
	dsn := fmt.Sprintf(
		"%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=-20000",
		dbPath,
	)

	gormConfig := &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := configurePool(db); err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	logger.LogInfo("Gallery database initialized at %s", dbPath)
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0750)
	}
	return nil
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("retrieve generic database interface: %w", err)
	}

	// One connection: SQLite has a single writer and the file is local.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	return nil
}

func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&Image{}); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_images_created_at ON images(created_at DESC);",
	}
	for _, idx := range indices {
		if err := db.Exec(idx).Error; err != nil {
			logger.LogWarn("Failed to create index: %v", err)
		}
	}
	return nil
}

// Totals returns the number of stored images and their combined size.
func Totals(db *gorm.DB) (count, size int64, err error) {
	// IFNULL keeps SUM at 0 on an empty table
	row := db.Model(&Image{}).Select("count(*), IFNULL(SUM(size), 0)").Row()
	if err := row.Scan(&count, &size); err != nil {
		return 0, 0, err
	}
	return count, size, nil
}
