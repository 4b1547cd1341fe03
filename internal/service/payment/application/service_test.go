// internal/service/payment/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"

	"minimall/internal/event"
	"minimall/internal/service/payment/domain"
)

// memPaymentRepo 是 PaymentRepository 的内存实现，
// DebitIfSufficient 与 MySQL 实现一样做条件扣款。
type memPaymentRepo struct {
	totals   map[string]float64
	owners   map[string]string
	balances map[string]float64

	// totalErr 在下一次 OrderTotal 调用时返回一次，模拟瞬时存储故障
	totalErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{
		totals:   map[string]float64{},
		owners:   map[string]string{},
		balances: map[string]float64{},
	}
}

func (r *memPaymentRepo) OrderTotal(_ context.Context, orderID string) (float64, string, error) {
	if r.totalErr != nil {
		err := r.totalErr
		r.totalErr = nil
		return 0, "", err
	}
	owner, ok := r.owners[orderID]
	if !ok {
		return 0, "", domain.ErrOrderNotFound
	}
	return r.totals[orderID], owner, nil
}

func (r *memPaymentRepo) DebitIfSufficient(_ context.Context, userID string, amount float64) (bool, error) {
	if r.balances[userID] < amount {
		return false, nil
	}
	r.balances[userID] -= amount
	return true, nil
}

type capturePublisher struct {
	published []event.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, _ string, env event.Envelope) error {
	p.published = append(p.published, env)
	return nil
}

type memGuard struct {
	seen map[string]bool
}

func (g *memGuard) Once(_ context.Context, key string) (bool, error) {
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, key string) error {
	delete(g.seen, key)
	return nil
}

func newPaymentService(repo domain.PaymentRepository, pub *capturePublisher) *PaymentApplicationService {
	return NewPaymentApplicationService(repo, pub, &memGuard{}, otel.Tracer("test"))
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("debits exact total", func(t *testing.T) {
		repo := newMemPaymentRepo()
		repo.owners["order-1"] = "user-1"
		repo.totals["order-1"] = 30
		repo.balances["user-1"] = 100
		svc := newPaymentService(repo, &capturePublisher{})

		status, err := svc.Settle(ctx, "order-1")
		if err != nil || status != domain.StatusSuccess {
			t.Fatalf("Settle = %q, %v; want success, nil", status, err)
		}
		if repo.balances["user-1"] != 70 {
			t.Fatalf("balance = %v, want 70", repo.balances["user-1"])
		}
	})

	t.Run("insufficient balance fails without side effects", func(t *testing.T) {
		repo := newMemPaymentRepo()
		repo.owners["order-1"] = "user-1"
		repo.totals["order-1"] = 500
		repo.balances["user-1"] = 100
		svc := newPaymentService(repo, &capturePublisher{})

		status, err := svc.Settle(ctx, "order-1")
		if err != nil || status != domain.StatusFailed {
			t.Fatalf("Settle = %q, %v; want failed, nil", status, err)
		}
		if repo.balances["user-1"] != 100 {
			t.Fatalf("balance = %v, must be untouched", repo.balances["user-1"])
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		svc := newPaymentService(newMemPaymentRepo(), &capturePublisher{})
		if _, err := svc.Settle(ctx, "ghost"); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("err = %v, want ErrOrderNotFound", err)
		}
	})

	t.Run("empty order id", func(t *testing.T) {
		svc := newPaymentService(newMemPaymentRepo(), &capturePublisher{})
		if _, err := svc.Settle(ctx, ""); !errors.Is(err, domain.ErrEmptyOrderID) {
			t.Fatalf("err = %v, want ErrEmptyOrderID", err)
		}
	})
}

func TestHandleEventSettlesAvailableOrders(t *testing.T) {
	ctx := context.Background()
	repo := newMemPaymentRepo()
	repo.owners["order-1"] = "user-1"
	repo.totals["order-1"] = 10
	repo.balances["user-1"] = 100
	pub := &capturePublisher{}
	svc := newPaymentService(repo, pub)

	checked, _ := event.NewInventoryChecked("order-1", true)
	svc.HandleEvent(ctx, checked)

	if len(pub.published) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.published))
	}
	processed, err := pub.published[0].DecodePaymentProcessed()
	if err != nil {
		t.Fatalf("DecodePaymentProcessed: %v", err)
	}
	if processed.OrderID != "order-1" || processed.Status != event.PaymentSuccess {
		t.Fatalf("unexpected payment.processed: %+v", processed)
	}
	if repo.balances["user-1"] != 90 {
		t.Fatalf("balance = %v, want 90", repo.balances["user-1"])
	}
}

func TestHandleEventIgnoresUnavailableOrders(t *testing.T) {
	pub := &capturePublisher{}
	svc := newPaymentService(newMemPaymentRepo(), pub)

	checked, _ := event.NewInventoryChecked("order-1", false)
	svc.HandleEvent(context.Background(), checked)

	if len(pub.published) != 0 {
		t.Fatal("unavailable order must not trigger settlement")
	}
}

func TestHandleEventIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemPaymentRepo()
	repo.owners["order-1"] = "user-1"
	repo.totals["order-1"] = 10
	repo.balances["user-1"] = 100
	pub := &capturePublisher{}
	svc := newPaymentService(repo, pub)

	checked, _ := event.NewInventoryChecked("order-1", true)
	svc.HandleEvent(ctx, checked)
	// broker 重投同一条消息
	svc.HandleEvent(ctx, checked)

	if repo.balances["user-1"] != 90 {
		t.Fatalf("balance = %v, want 90 (debit exactly once)", repo.balances["user-1"])
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.published))
	}
}

func TestHandleEventRetriesAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemPaymentRepo()
	repo.owners["order-1"] = "user-1"
	repo.totals["order-1"] = 10
	repo.balances["user-1"] = 100
	repo.totalErr = errors.New("storage unavailable")
	pub := &capturePublisher{}
	svc := newPaymentService(repo, pub)

	checked, _ := event.NewInventoryChecked("order-1", true)

	// 第一次投递撞上存储故障，没有任何结果落地
	svc.HandleEvent(ctx, checked)
	if len(pub.published) != 0 {
		t.Fatalf("published %d events after failed settlement, want 0", len(pub.published))
	}
	if repo.balances["user-1"] != 100 {
		t.Fatalf("balance = %v, failed settlement must not debit", repo.balances["user-1"])
	}

	// 失败必须归还幂等标记，broker 的重投才能把订单救回来
	svc.HandleEvent(ctx, checked)
	if repo.balances["user-1"] != 90 {
		t.Fatalf("balance = %v, want 90 after redelivery", repo.balances["user-1"])
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d events, want 1 after redelivery", len(pub.published))
	}
	processed, err := pub.published[0].DecodePaymentProcessed()
	if err != nil {
		t.Fatalf("DecodePaymentProcessed: %v", err)
	}
	if processed.Status != event.PaymentSuccess {
		t.Fatalf("status = %q, want success", processed.Status)
	}
}

func TestHandleEventPublishesFailedOutcome(t *testing.T) {
	ctx := context.Background()
	repo := newMemPaymentRepo()
	repo.owners["order-1"] = "user-1"
	repo.totals["order-1"] = 500
	repo.balances["user-1"] = 1
	pub := &capturePublisher{}
	svc := newPaymentService(repo, pub)

	checked, _ := event.NewInventoryChecked("order-1", true)
	svc.HandleEvent(ctx, checked)

	processed, err := pub.published[0].DecodePaymentProcessed()
	if err != nil {
		t.Fatalf("DecodePaymentProcessed: %v", err)
	}
	if processed.Status != event.PaymentFailed {
		t.Fatalf("status = %q, want failed", processed.Status)
	}
}
