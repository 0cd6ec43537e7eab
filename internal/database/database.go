package database

import (
	"fmt"
	"log"
	"time"

	"steam-buff-tracker/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize 连接MySQL并迁移快照表
func Initialize(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL 未配置")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// 单次运行只需要少量连接
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// Migrate creates or updates the snapshot table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PriceSnapshotRow{}); err != nil {
		return fmt.Errorf("迁移 price_snapshots 失败: %w", err)
	}
	return nil
}

// SnapshotRows converts price records into table rows. Timestamps that do
// not parse fall back to now.
func SnapshotRows(records []models.PriceRecord, now time.Time) []models.PriceSnapshotRow {
	rows := make([]models.PriceSnapshotRow, 0, len(records))
	for _, r := range records {
		observed, err := time.Parse(time.RFC3339Nano, r.Prices.Timestamp)
		if err != nil {
			observed = now
		}
		rows = append(rows, models.PriceSnapshotRow{
			Name:         r.Name,
			GoodsID:      r.GoodsID,
			Game:         r.Game,
			Link:         r.Link,
			SteamPrice:   r.Prices.SteamPrice,
			BuffPrice:    r.Prices.BuffPrice,
			BuffUsername: r.Prices.BuffUsername,
			Ratio:        r.Prices.Ratio,
			ObservedAt:   observed.UTC(),
		})
	}
	return rows
}

// SaveSnapshots 批量写入本次运行的快照
func SaveSnapshots(db *gorm.DB, records []models.PriceRecord) (int, error) {
	rows := SnapshotRows(records, time.Now())
	if len(rows) == 0 {
		return 0, nil
	}
	if err := db.CreateInBatches(rows, 100).Error; err != nil {
		return 0, fmt.Errorf("写入快照失败: %w", err)
	}
	return len(rows), nil
}
