// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"minimall/internal/service/order/domain"
)

// OrderModel 对应 orders 表。商品、买家、追踪分属其他服务的表，
// 这里只在查询时做只读 JOIN，不建立 GORM 关联，写入边界保持清晰。
type OrderModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;index"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// GormOrderRepository 是 OrderRepository 的 MySQL 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate 建表，供服务启动时调用。
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&OrderModel{})
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := OrderModel{
		ID:        order.ID,
		UserID:    order.UserID,
		CreatedAt: order.CreatedAt.UnixMilli(),
		UpdatedAt: order.UpdatedAt.UnixMilli(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	if err := r.db.WithContext(ctx).Take(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}

	order := &domain.Order{
		ID:        model.ID,
		UserID:    model.UserID,
		CreatedAt: time.UnixMilli(model.CreatedAt),
		UpdatedAt: time.UnixMilli(model.UpdatedAt),
	}

	// 已预留的商品：order_products 关联 products 取单价
	var products []domain.OrderProduct
	err := r.db.WithContext(ctx).
		Table("order_products").
		Select("order_products.product_id, products.price, order_products.quantity").
		Joins("JOIN products ON products.id = order_products.product_id").
		Where("order_products.order_id = ?", id).
		Scan(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "load order products")
	}
	order.Products = products

	var user domain.User
	err = r.db.WithContext(ctx).Table("users").Take(&user, "id = ?", model.UserID).Error
	switch {
	case err == nil:
		order.User = &user
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "load order user")
	}

	var track domain.Track
	err = r.db.WithContext(ctx).Table("order_tracks").Select("id, status").Take(&track, "order_id = ?", id).Error
	switch {
	case err == nil:
		order.Track = &track
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "load order track")
	}

	return order, nil
}
