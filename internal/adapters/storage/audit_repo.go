package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ensure compliance
var _ ports.FetchAuditRepository = (*SQLiteAuditRepo)(nil)

// FetchRecordModel is the GORM model for the upstream fetch audit trail.
type FetchRecordModel struct {
	ID         string `gorm:"primaryKey"`
	Provider   string `gorm:"index"`
	CacheKey   string
	StatusCode int
	Success    bool
	Error      string
	DurationMS int64
	Timestamp  time.Time `gorm:"index"`
}

// SQLiteAuditRepo persists fetch records via GORM and SQLite.
type SQLiteAuditRepo struct {
	db *gorm.DB
}

// NewSQLiteAuditRepo initializes the database and migrates the schema.
func NewSQLiteAuditRepo(path string) (*SQLiteAuditRepo, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.AutoMigrate(&FetchRecordModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}

	return &SQLiteAuditRepo{db: db}, nil
}

// SaveFetchRecord appends one audited provider call.
func (r *SQLiteAuditRepo) SaveFetchRecord(rec domain.FetchRecord) error {
	model := FetchRecordModel{
		ID:         rec.ID,
		Provider:   rec.Provider,
		CacheKey:   rec.CacheKey,
		StatusCode: rec.StatusCode,
		Success:    rec.Success,
		Error:      rec.Error,
		DurationMS: rec.DurationMS,
		Timestamp:  rec.Timestamp,
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	return r.db.Create(&model).Error
}

// ListFetchRecords returns the most recent records, newest first.
func (r *SQLiteAuditRepo) ListFetchRecords(limit int) ([]domain.FetchRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var models []FetchRecordModel
	if err := r.db.Order("timestamp desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domain.FetchRecord, 0, len(models))
	for _, m := range models {
		records = append(records, domain.FetchRecord{
			ID:         m.ID,
			Provider:   m.Provider,
			CacheKey:   m.CacheKey,
			StatusCode: m.StatusCode,
			Success:    m.Success,
			Error:      m.Error,
			DurationMS: m.DurationMS,
			Timestamp:  m.Timestamp,
		})
	}
	return records, nil
}
