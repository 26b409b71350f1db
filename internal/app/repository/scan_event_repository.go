package repository

import (
	"context"

	"gorm.io/gorm"

	"qroute/internal/app/model"
)

// ScanEventRepository defines the data access contract for scan events.
type ScanEventRepository interface {
	Create(ctx context.Context, event *model.ScanEvent) error
	CountByRoute(ctx context.Context, routeID string) (int64, error)
}

type scanEventRepository struct {
	db *gorm.DB
}

// NewScanEventRepository returns a GORM-backed ScanEventRepository.
func NewScanEventRepository(db *gorm.DB) ScanEventRepository {
	return &scanEventRepository{db: db}
}

func (r *scanEventRepository) Create(ctx context.Context, event *model.ScanEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *scanEventRepository) CountByRoute(ctx context.Context, routeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ScanEvent{}).
		Where("route_id = ?", routeID).
		Count(&count).Error
	return count, err
}
