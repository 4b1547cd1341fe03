// internal/service/tracking/domain/track.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Status 是订单追踪的生命周期状态。
type Status string

const (
	StatusCreated  Status = "created"  // 追踪记录建立，结果未定
	StatusCanceled Status = "canceled" // 终态：库存不足或支付失败
	StatusPaid     Status = "paid"     // 终态：支付成功
)

var (
	ErrTrackerNotFound   = errors.New("tracker not found")
	ErrTrackerExists     = errors.New("tracker already exists for this order")
	ErrInvalidStatus     = errors.New("status must be paid or canceled")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyOrderID      = errors.New("orderId is required")
)

// transitions 是显式的状态迁移表。终态没有出边。
var transitions = map[Status]map[Status]bool{
	StatusCreated: {
		StatusPaid:     true,
		StatusCanceled: true,
	},
}

// CanTransition 判断 s → to 是否合法。
func (s Status) CanTransition(to Status) bool {
	return transitions[s][to]
}

// IsTerminal 判断 s 是否为终态。
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ParseTarget 校验一次更新请求的目标状态。只有两个非初始状态可以作为目标。
func ParseTarget(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPaid:
		return StatusPaid, nil
	case StatusCanceled:
		return StatusCanceled, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "got %q", raw)
	}
}

// Track 是一个订单的权威状态记录，与订单一一对应。
type Track struct {
	ID        string
	OrderID   string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrack 为订单建立追踪记录，初始状态为 created。
func NewTrack(orderID string) (*Track, error) {
	if orderID == "" {
		return nil, ErrEmptyOrderID
	}
	now := time.Now()
	return &Track{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionTo 按迁移表推进状态，终态之后的任何迁移都会被拒绝。
func (t *Track) TransitionTo(to Status) error {
	if !t.Status.CanTransition(to) {
		return errors.Wrap(ErrInvalidTransition, fmt.Sprintf("%s -> %s", t.Status, to))
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	return nil
}
