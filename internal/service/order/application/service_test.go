// internal/service/order/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"minimall/internal/service/order/application/saga"
	"minimall/internal/service/order/domain"
)

type memOrderRepo struct {
	orders    map[string]*domain.Order
	createErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]*domain.Order{}}
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

type stubInventory struct {
	available    bool
	checkErr     error
	fulfillErr   error
	checkCalls   int
	fulfillCalls int
}

func (s *stubInventory) CheckAndReserve(_ context.Context, _ string, _ []string) (bool, error) {
	s.checkCalls++
	return s.available, s.checkErr
}

func (s *stubInventory) Fulfill(_ context.Context, _ string) error {
	s.fulfillCalls++
	return s.fulfillErr
}

type stubPayment struct {
	status string
	err    error
	calls  int
}

func (s *stubPayment) Settle(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.status, s.err
}

type stubTracking struct {
	createErr   error
	updateErr   error
	createCalls int
	updates     []string // "trackerId:status"
}

func (s *stubTracking) Create(_ context.Context, _ string) (string, error) {
	s.createCalls++
	if s.createErr != nil {
		return "", s.createErr
	}
	return "tracker-1", nil
}

func (s *stubTracking) UpdateStatus(_ context.Context, trackerID, status string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, trackerID+":"+status)
	return nil
}

type stubPublisher struct {
	ready      bool
	publishErr error
	published  []string
}

func (s *stubPublisher) Ready() bool { return s.ready }

func (s *stubPublisher) PublishOrderCreated(_ context.Context, orderID string, _ []string) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, orderID)
	return nil
}

type fixture struct {
	repo      *memOrderRepo
	inventory *stubInventory
	payment   *stubPayment
	tracking  *stubTracking
	publisher *stubPublisher
	service   *OrderApplicationService
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMemOrderRepo(),
		inventory: &stubInventory{available: true},
		payment:   &stubPayment{status: "success"},
		tracking:  &stubTracking{},
		publisher: &stubPublisher{ready: true},
	}
	f.service = NewOrderApplicationService(
		f.repo, f.inventory, f.payment, f.tracking, f.publisher,
		otel.Tracer("test"), "user-1", time.Second,
	)
	return f
}

func TestPlaceOrderSyncHappyPath(t *testing.T) {
	f := newFixture()

	order, err := f.service.PlaceOrderSync(context.Background(), "p1")
	if err != nil {
		t.Fatalf("PlaceOrderSync: %v", err)
	}
	if order.UserID != "user-1" {
		t.Fatalf("userId = %q, want user-1", order.UserID)
	}
	if f.inventory.fulfillCalls != 1 {
		t.Fatalf("fulfill calls = %d, want 1", f.inventory.fulfillCalls)
	}
	if len(f.tracking.updates) != 1 || f.tracking.updates[0] != "tracker-1:paid" {
		t.Fatalf("tracker updates = %v, want [tracker-1:paid]", f.tracking.updates)
	}
	if _, err := f.repo.FindByID(context.Background(), order.ID); err != nil {
		t.Fatalf("order row missing: %v", err)
	}
}

func TestPlaceOrderSyncUnavailable(t *testing.T) {
	f := newFixture()
	f.inventory.available = false

	_, err := f.service.PlaceOrderSync(context.Background(), "p-missing")
	if !errors.Is(err, saga.ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}
	if f.tracking.createCalls != 0 {
		t.Fatal("unavailable order must not create a tracker")
	}
	if f.payment.calls != 0 {
		t.Fatal("unavailable order must not reach payment")
	}
}

func TestPlaceOrderSyncPaymentDeclinedCompensates(t *testing.T) {
	f := newFixture()
	f.payment.status = "failed"

	_, err := f.service.PlaceOrderSync(context.Background(), "p1")
	if !errors.Is(err, saga.ErrPaymentFailed) {
		t.Fatalf("err = %v, want ErrPaymentFailed", err)
	}
	if len(f.tracking.updates) != 1 || f.tracking.updates[0] != "tracker-1:canceled" {
		t.Fatalf("tracker updates = %v, want [tracker-1:canceled]", f.tracking.updates)
	}
	if f.inventory.fulfillCalls != 0 {
		t.Fatal("declined payment must not decrement stock")
	}
}

func TestPlaceOrderSyncPaymentErrorSkipsCompensation(t *testing.T) {
	f := newFixture()
	f.payment.err = errors.New("payment service unreachable")

	_, err := f.service.PlaceOrderSync(context.Background(), "p1")
	if err == nil || errors.Is(err, saga.ErrPaymentFailed) {
		t.Fatalf("err = %v, want transport error", err)
	}
	// 结算结果未知，不能武断地把追踪置为 canceled
	if len(f.tracking.updates) != 0 {
		t.Fatalf("tracker updates = %v, want none", f.tracking.updates)
	}
}

func TestPlaceOrderSyncRequiresProductID(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceOrderSync(context.Background(), "")
	if !errors.Is(err, domain.ErrEmptyProductID) {
		t.Fatalf("err = %v, want ErrEmptyProductID", err)
	}
	if len(f.repo.orders) != 0 {
		t.Fatal("invalid request must not create an order")
	}
}

func TestPlaceOrderAsync(t *testing.T) {
	t.Run("publishes order.created", func(t *testing.T) {
		f := newFixture()

		order, err := f.service.PlaceOrderAsync(context.Background(), "p1")
		if err != nil {
			t.Fatalf("PlaceOrderAsync: %v", err)
		}
		if len(f.publisher.published) != 1 || f.publisher.published[0] != order.ID {
			t.Fatalf("published = %v, want [%s]", f.publisher.published, order.ID)
		}
		// 异步路径不触碰下游服务
		if f.inventory.checkCalls != 0 || f.payment.calls != 0 || f.tracking.createCalls != 0 {
			t.Fatal("async path must not call downstream services directly")
		}
	})

	t.Run("refuses when bus is down", func(t *testing.T) {
		f := newFixture()
		f.publisher.ready = false

		_, err := f.service.PlaceOrderAsync(context.Background(), "p1")
		if !errors.Is(err, ErrBusUnavailable) {
			t.Fatalf("err = %v, want ErrBusUnavailable", err)
		}
		if len(f.repo.orders) != 0 {
			t.Fatal("no order row may exist when the bus is down")
		}
	})

	t.Run("surfaces publish failure", func(t *testing.T) {
		f := newFixture()
		f.publisher.publishErr = errors.New("broker write failed")

		if _, err := f.service.PlaceOrderAsync(context.Background(), "p1"); err == nil {
			t.Fatal("expected publish failure to surface")
		}
	})
}

func TestGetOrder(t *testing.T) {
	f := newFixture()

	if _, err := f.service.GetOrder(context.Background(), "ghost"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}
