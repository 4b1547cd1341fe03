// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrEmptyProductID = errors.New("productId is required")
	ErrEmptyUserID    = errors.New("userId is required")
)

// Order 是订单聚合根。创建时不带商品，
// 商品关系只在库存预留成功后由库存服务补上。本子系统不删除订单。
type Order struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time

	// 以下关联在查询时按需加载
	Products []OrderProduct
	User     *User
	Track    *Track
}

// OrderProduct 是订单视角下的已预留商品。
type OrderProduct struct {
	ProductID string  `json:"productId"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// User 是订单视角下的买家信息。
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Track 是订单视角下的追踪状态。
type Track struct {
	ID     string `json:"trackerId"`
	Status string `json:"status"`
}

// NewOrder 为默认买家创建一个新订单。
func NewOrder(userID string) (*Order, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	now := time.Now()
	return &Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
