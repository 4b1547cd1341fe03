// internal/service/tracking/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"minimall/internal/service/tracking/domain"
)

// TrackModel 对应数据库中的 order_tracks 表。
// order_id 上的唯一索引保证订单与追踪一一对应。
type TrackModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	OrderID   string `gorm:"size:36;uniqueIndex"`
	Status    string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TrackModel) TableName() string {
	return "order_tracks"
}

// GormTrackRepository 是 TrackRepository 的 GORM 实现。
type GormTrackRepository struct {
	db *gorm.DB
}

func NewGormTrackRepository(db *gorm.DB) *GormTrackRepository {
	return &GormTrackRepository{db: db}
}

// AutoMigrate 建表，供服务启动时调用。
func (r *GormTrackRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&TrackModel{})
}

func (r *GormTrackRepository) Create(ctx context.Context, track *domain.Track) error {
	model := TrackModel{
		ID:        track.ID,
		OrderID:   track.OrderID,
		Status:    string(track.Status),
		CreatedAt: track.CreatedAt,
		UpdatedAt: track.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrTrackerExists
		}
		return errors.Wrap(err, "insert tracker")
	}
	return nil
}

func (r *GormTrackRepository) FindByID(ctx context.Context, id string) (*domain.Track, error) {
	var model TrackModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTrackerNotFound
		}
		return nil, errors.Wrap(err, "find tracker by id")
	}
	return toDomain(&model), nil
}

func (r *GormTrackRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Track, error) {
	var model TrackModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTrackerNotFound
		}
		return nil, errors.Wrap(err, "find tracker by order id")
	}
	return toDomain(&model), nil
}

func (r *GormTrackRepository) CompareAndSetStatus(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&TrackModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "update tracker status")
	}
	return res.RowsAffected > 0, nil
}

func toDomain(m *TrackModel) *domain.Track {
	return &domain.Track{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Status:    domain.Status(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
