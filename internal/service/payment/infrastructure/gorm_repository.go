// internal/service/payment/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"minimall/internal/service/payment/domain"
)

// UserModel 对应数据库中的 users 表。余额只由支付服务扣减。
type UserModel struct {
	ID      string `gorm:"primaryKey;size:36"`
	Name    string `gorm:"size:64"`
	Balance float64
}

func (UserModel) TableName() string {
	return "users"
}

// orderRow 只取结算需要的两列。
type orderRow struct {
	ID     string
	UserID string
}

// GormPaymentRepository 是 PaymentRepository 的 GORM 实现。
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&UserModel{})
}

func (r *GormPaymentRepository) OrderTotal(ctx context.Context, orderID string) (float64, string, error) {
	var order orderRow
	err := r.db.WithContext(ctx).Table("orders").Select("id", "user_id").Where("id = ?", orderID).Take(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", domain.ErrOrderNotFound
		}
		return 0, "", errors.Wrap(err, "load order")
	}

	var total float64
	err = r.db.WithContext(ctx).
		Table("order_products").
		Select("COALESCE(SUM(products.price * order_products.quantity), 0)").
		Joins("JOIN products ON products.id = order_products.product_id").
		Where("order_products.order_id = ?", orderID).
		Scan(&total).Error
	if err != nil {
		return 0, "", errors.Wrap(err, "sum order total")
	}
	return total, order.UserID, nil
}

func (r *GormPaymentRepository) DebitIfSufficient(ctx context.Context, userID string, amount float64) (bool, error) {
	// 余额校验与扣减在同一条原子语句里完成
	res := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ? AND balance >= ?", userID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "debit balance")
	}
	return res.RowsAffected > 0, nil
}
