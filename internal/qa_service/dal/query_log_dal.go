package dal

import (
	"context"

	"gorm.io/gorm"

	"docqa/internal/models"
)

// QueryLogDAL provides data access methods for per-request query logs.
type QueryLogDAL struct {
	db *gorm.DB
}

// NewQueryLogDAL creates a new QueryLogDAL.
func NewQueryLogDAL(db *gorm.DB) *QueryLogDAL {
	return &QueryLogDAL{db: db}
}

// Create persists one query log entry.
func (dal *QueryLogDAL) Create(ctx context.Context, entry *models.QueryLog) error {
	result := dal.db.WithContext(ctx).Create(entry)
	return result.Error
}

// ListBySession retrieves the log entries recorded for one session.
func (dal *QueryLogDAL) ListBySession(ctx context.Context, sessionID string) ([]*models.QueryLog, error) {
	var entries []*models.QueryLog
	result := dal.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}
