package persistence

import (
	"context"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/ficore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements credit.AuditLogRepository using GORM.
// Entries are write-once; there are no update or delete operations.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *credit.AuditEntry) error {
	var model models.AuditLogModel
	if err := model.FromDomain(entry); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListByUserID returns the user's audit entries, newest first
func (r *GormAuditLogRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*credit.AuditEntry, error) {
	var modelList []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toAuditEntries(modelList), nil
}

// ListRecent returns the newest audit entries across all users
func (r *GormAuditLogRepository) ListRecent(ctx context.Context, limit int) ([]*credit.AuditEntry, error) {
	var modelList []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toAuditEntries(modelList), nil
}

func toAuditEntries(modelList []models.AuditLogModel) []*credit.AuditEntry {
	entries := make([]*credit.AuditEntry, len(modelList))
	for i := range modelList {
		entries[i] = modelList[i].ToDomain()
	}
	return entries
}

// Ensure GormAuditLogRepository implements the interface
var _ credit.AuditLogRepository = (*GormAuditLogRepository)(nil)
