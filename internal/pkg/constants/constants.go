// internal/pkg/constants/constants.go
package constants

// 服务名，同时用于 Nacos 注册与发现。
const (
	OrderService     = "order-service"
	InventoryService = "inventory-service"
	PaymentService   = "payment-service"
	TrackingService  = "tracking-service"
)

// 编排路径上各服务的同步接口路径。
const (
	InventoryCheckPath  = "/api/v1/inventory"
	InventoryUpdatePath = "/api/v1/inventory/update/"
	PaymentPath         = "/api/v1/payment"
	TrackCreatePath     = "/api/v1/track/create"
	TrackUpdatePath     = "/api/v1/track/update/"
)
