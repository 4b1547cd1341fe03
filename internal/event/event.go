// internal/event/event.go
package event

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// 四个服务共享主题上的三种事件。
// 每个消费者都会收到全部事件，对自己不处理的种类必须静默忽略。
const (
	KindOrderCreated     = "order.created"
	KindInventoryChecked = "inventory.checked"
	KindPaymentProcessed = "payment.processed"
)

// payment.processed 的 status 取值。
const (
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// ErrBadPayload 表示事件体不符合其声明的种类的 schema。
// 消费侧遇到它应记录日志并丢弃消息，绝不能让消费循环崩溃。
var ErrBadPayload = errors.New("event payload does not match its declared kind")

// Envelope 是事件在主题上的统一外壳: {"message": "<kind>", "data": {...}}。
// data 保持 RawMessage，按 message 字段分发后再做各自的 schema 校验。
type Envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode 从原始字节解析出事件外壳。
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errors.Wrap(ErrBadPayload, err.Error())
	}
	if env.Message == "" {
		return Envelope{}, errors.Wrap(ErrBadPayload, "missing message field")
	}
	return env, nil
}

// Bytes 序列化外壳，交给网关发布。
func (e Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// OrderCreated 由订单服务在编舞路径下单时发布。
type OrderCreated struct {
	OrderID    string   `json:"orderId"`
	ProductIDs []string `json:"productIds"`
}

// InventoryChecked 由库存服务在校验完库存后发布。
type InventoryChecked struct {
	OrderID     string `json:"orderId"`
	IsAvailable bool   `json:"isAvailable"`
}

// PaymentProcessed 由支付服务在结算完成后发布。
type PaymentProcessed struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// NewOrderCreated 构造 order.created 事件。
func NewOrderCreated(orderID string, productIDs []string) (Envelope, error) {
	return wrap(KindOrderCreated, OrderCreated{OrderID: orderID, ProductIDs: productIDs})
}

// NewInventoryChecked 构造 inventory.checked 事件。
func NewInventoryChecked(orderID string, isAvailable bool) (Envelope, error) {
	return wrap(KindInventoryChecked, InventoryChecked{OrderID: orderID, IsAvailable: isAvailable})
}

// NewPaymentProcessed 构造 payment.processed 事件。
func NewPaymentProcessed(orderID, status string) (Envelope, error) {
	if status != PaymentSuccess && status != PaymentFailed {
		return Envelope{}, fmt.Errorf("invalid payment status %q", status)
	}
	return wrap(KindPaymentProcessed, PaymentProcessed{OrderID: orderID, Status: status})
}

func wrap(kind string, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "marshal %s", kind)
	}
	return Envelope{Message: kind, Data: raw}, nil
}

// DecodeOrderCreated 校验并解出 order.created 的载荷。
func (e Envelope) DecodeOrderCreated() (*OrderCreated, error) {
	if e.Message != KindOrderCreated {
		return nil, errors.Wrapf(ErrBadPayload, "expected %s, got %s", KindOrderCreated, e.Message)
	}
	var data OrderCreated
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, errors.Wrap(ErrBadPayload, err.Error())
	}
	if data.OrderID == "" || len(data.ProductIDs) == 0 {
		return nil, errors.Wrap(ErrBadPayload, "order.created requires orderId and productIds")
	}
	return &data, nil
}

// DecodeInventoryChecked 校验并解出 inventory.checked 的载荷。
func (e Envelope) DecodeInventoryChecked() (*InventoryChecked, error) {
	if e.Message != KindInventoryChecked {
		return nil, errors.Wrapf(ErrBadPayload, "expected %s, got %s", KindInventoryChecked, e.Message)
	}
	// isAvailable 解到指针上，缺字段和显式 false 必须区分开：
	// 缺字段的载荷不能被当成取消信号
	var data struct {
		OrderID     string `json:"orderId"`
		IsAvailable *bool  `json:"isAvailable"`
	}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, errors.Wrap(ErrBadPayload, err.Error())
	}
	if data.OrderID == "" || data.IsAvailable == nil {
		return nil, errors.Wrap(ErrBadPayload, "inventory.checked requires orderId and isAvailable")
	}
	return &InventoryChecked{OrderID: data.OrderID, IsAvailable: *data.IsAvailable}, nil
}

// DecodePaymentProcessed 校验并解出 payment.processed 的载荷。
func (e Envelope) DecodePaymentProcessed() (*PaymentProcessed, error) {
	if e.Message != KindPaymentProcessed {
		return nil, errors.Wrapf(ErrBadPayload, "expected %s, got %s", KindPaymentProcessed, e.Message)
	}
	var data PaymentProcessed
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, errors.Wrap(ErrBadPayload, err.Error())
	}
	if data.OrderID == "" {
		return nil, errors.Wrap(ErrBadPayload, "payment.processed requires orderId")
	}
	if data.Status != PaymentSuccess && data.Status != PaymentFailed {
		return nil, errors.Wrapf(ErrBadPayload, "payment.processed has invalid status %q", data.Status)
	}
	return &data, nil
}
