// internal/service/tracking/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"

	"minimall/internal/event"
	"minimall/internal/service/tracking/domain"
)

// memTrackRepo 是 TrackRepository 的内存实现，行为与 MySQL 实现一致：
// order_id 唯一，状态推进走条件更新。
type memTrackRepo struct {
	byID      map[string]*domain.Track
	byOrderID map[string]string
}

func newMemTrackRepo() *memTrackRepo {
	return &memTrackRepo{byID: map[string]*domain.Track{}, byOrderID: map[string]string{}}
}

func (r *memTrackRepo) Create(_ context.Context, track *domain.Track) error {
	if _, ok := r.byOrderID[track.OrderID]; ok {
		return domain.ErrTrackerExists
	}
	copied := *track
	r.byID[track.ID] = &copied
	r.byOrderID[track.OrderID] = track.ID
	return nil
}

func (r *memTrackRepo) FindByID(_ context.Context, id string) (*domain.Track, error) {
	track, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTrackerNotFound
	}
	copied := *track
	return &copied, nil
}

func (r *memTrackRepo) FindByOrderID(_ context.Context, orderID string) (*domain.Track, error) {
	id, ok := r.byOrderID[orderID]
	if !ok {
		return nil, domain.ErrTrackerNotFound
	}
	return r.FindByID(context.Background(), id)
}

func (r *memTrackRepo) CompareAndSetStatus(_ context.Context, id string, from, to domain.Status) (bool, error) {
	track, ok := r.byID[id]
	if !ok || track.Status != from {
		return false, nil
	}
	track.Status = to
	return true, nil
}

type notifyRecorder struct {
	calls []string
}

func (n *notifyRecorder) NotifyStatusChange(trackerID string, status domain.Status) {
	n.calls = append(n.calls, trackerID+":"+string(status))
}

func newTestService(repo domain.TrackRepository, notifier StatusNotifier) *TrackingApplicationService {
	return NewTrackingApplicationService(repo, otel.Tracer("test"), notifier)
}

func TestCreateTrackerIsOnePerOrder(t *testing.T) {
	repo := newMemTrackRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	track, err := svc.CreateTracker(ctx, "order-1")
	if err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}
	if track.Status != domain.StatusCreated {
		t.Fatalf("status = %q, want created", track.Status)
	}

	if _, err := svc.CreateTracker(ctx, "order-1"); !errors.Is(err, domain.ErrTrackerExists) {
		t.Fatalf("duplicate create err = %v, want ErrTrackerExists", err)
	}
}

func TestUpdateStatusRejectsTerminalTracker(t *testing.T) {
	repo := newMemTrackRepo()
	notifier := &notifyRecorder{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	track, err := svc.CreateTracker(ctx, "order-1")
	if err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, track.ID, domain.StatusPaid); err != nil {
		t.Fatalf("UpdateStatus(paid): %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(notifier.calls))
	}

	if _, err := svc.UpdateStatus(ctx, track.ID, domain.StatusCanceled); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("terminal update err = %v, want ErrInvalidTransition", err)
	}
	got, _ := repo.FindByID(ctx, track.ID)
	if got.Status != domain.StatusPaid {
		t.Fatalf("terminal status overwritten to %q", got.Status)
	}
}

func TestHandleEventProjectsLifecycle(t *testing.T) {
	repo := newMemTrackRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	created, _ := event.NewOrderCreated("order-1", []string{"p1"})
	svc.HandleEvent(ctx, created)

	track, err := repo.FindByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("tracker not created from order.created: %v", err)
	}

	// 重投同一事件是 no-op
	svc.HandleEvent(ctx, created)
	if len(repo.byID) != 1 {
		t.Fatalf("redelivery created extra trackers: %d", len(repo.byID))
	}

	paid, _ := event.NewPaymentProcessed("order-1", event.PaymentSuccess)
	svc.HandleEvent(ctx, paid)

	got, _ := repo.FindByID(ctx, track.ID)
	if got.Status != domain.StatusPaid {
		t.Fatalf("status = %q, want paid", got.Status)
	}

	// 终态之后到达的取消事件被忽略
	failed, _ := event.NewPaymentProcessed("order-1", event.PaymentFailed)
	svc.HandleEvent(ctx, failed)
	got, _ = repo.FindByID(ctx, track.ID)
	if got.Status != domain.StatusPaid {
		t.Fatalf("terminal status overwritten to %q", got.Status)
	}
}

func TestHandleEventCancelsUnavailableOrder(t *testing.T) {
	repo := newMemTrackRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	created, _ := event.NewOrderCreated("order-2", []string{"p-missing"})
	svc.HandleEvent(ctx, created)

	checked, _ := event.NewInventoryChecked("order-2", false)
	svc.HandleEvent(ctx, checked)

	track, err := repo.FindByOrderID(ctx, "order-2")
	if err != nil {
		t.Fatalf("FindByOrderID: %v", err)
	}
	if track.Status != domain.StatusCanceled {
		t.Fatalf("status = %q, want canceled", track.Status)
	}
}

func TestHandleEventCreatesTrackerForEarlyArrival(t *testing.T) {
	repo := newMemTrackRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	// payment.processed 先于 order.created 到达
	paid, _ := event.NewPaymentProcessed("order-3", event.PaymentSuccess)
	svc.HandleEvent(ctx, paid)

	track, err := repo.FindByOrderID(ctx, "order-3")
	if err != nil {
		t.Fatalf("early event did not create tracker: %v", err)
	}
	if track.Status != domain.StatusPaid {
		t.Fatalf("status = %q, want paid", track.Status)
	}
}

func TestHandleEventIgnoresMalformedPayloads(t *testing.T) {
	repo := newMemTrackRepo()
	svc := newTestService(repo, nil)

	svc.HandleEvent(context.Background(), event.Envelope{
		Message: event.KindPaymentProcessed,
		Data:    []byte(`{"orderId":"order-4","status":"maybe"}`),
	})

	if len(repo.byID) != 0 {
		t.Fatal("malformed event must not create state")
	}
}
