// internal/service/payment/domain/payment.go
package domain

import "github.com/pkg/errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrderID  = errors.New("orderId is required")
)

// Status 是一次结算的结果。
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)
