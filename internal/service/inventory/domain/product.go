// internal/service/inventory/domain/product.go
package domain

import "github.com/pkg/errors"

var (
	ErrNoProductsFound   = errors.New("none of the requested products exist")
	ErrOrderNotFound     = errors.New("order has no reserved products")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyRequest      = errors.New("productIds is required")
)

// Product 是库存视角下的商品。库存只在履约时扣减，本子系统没有回补路径。
type Product struct {
	ID    string
	Price float64
	Stock int
}

// GroupByCount 把请求的商品 ID 列表归并为 每个商品 -> 请求数量。
func GroupByCount(productIDs []string) map[string]int {
	counts := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		counts[id]++
	}
	return counts
}

// CheckAvailability 判断请求的商品多重集能否由当前库存满足：
// 每个请求的商品都必须存在，且请求数量不超过现有库存。
// 同步调用和事件消费共用这一个判定，保证两条路径结论一致。
func CheckAvailability(requested map[string]int, inStock []Product) bool {
	if len(requested) == 0 {
		return false
	}
	byID := make(map[string]Product, len(inStock))
	for _, p := range inStock {
		byID[p.ID] = p
	}
	for id, n := range requested {
		p, ok := byID[id]
		if !ok || p.Stock < n {
			return false
		}
	}
	return true
}
