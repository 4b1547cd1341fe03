// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"minimall/internal/service/inventory/domain"
)

// ProductModel 对应数据库中的 products 表。
type ProductModel struct {
	ID    string `gorm:"primaryKey;size:64"`
	Price float64
	Stock int
}

func (ProductModel) TableName() string {
	return "products"
}

// ReservationModel 对应 order_products 关联表，预留行记录数量。
type ReservationModel struct {
	OrderID   string `gorm:"primaryKey;size:36"`
	ProductID string `gorm:"primaryKey;size:64"`
	Quantity  int
}

func (ReservationModel) TableName() string {
	return "order_products"
}

// GormProductRepository 是 ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ProductModel{}, &ReservationModel{})
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	products := make([]domain.Product, 0, len(models))
	for _, m := range models {
		products = append(products, domain.Product{ID: m.ID, Price: m.Price, Stock: m.Stock})
	}
	return products, nil
}

func (r *GormProductRepository) Reserve(ctx context.Context, orderID string, quantities map[string]int) error {
	rows := make([]ReservationModel, 0, len(quantities))
	for productID, qty := range quantities {
		rows = append(rows, ReservationModel{OrderID: orderID, ProductID: productID, Quantity: qty})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 重投下的二次预留是 no-op
			return nil
		}
		return errors.Wrap(err, "insert reservations")
	}
	return nil
}

func (r *GormProductRepository) ReservedQuantities(ctx context.Context, orderID string) (map[string]int, error) {
	var rows []ReservationModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load reservations")
	}
	quantities := make(map[string]int, len(rows))
	for _, row := range rows {
		quantities[row.ProductID] = row.Quantity
	}
	return quantities, nil
}

func (r *GormProductRepository) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	// 原子条件扣减，读改写竞态在这里收口
	res := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "decrement stock")
	}
	return res.RowsAffected > 0, nil
}
