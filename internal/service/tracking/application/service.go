// internal/service/tracking/application/service.go
package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimall/internal/event"
	"minimall/internal/pkg/logger"
	"minimall/internal/service/tracking/domain"
)

// StatusNotifier 在状态变化时收到通知，用于 websocket 推送。
type StatusNotifier interface {
	NotifyStatusChange(trackerID string, status domain.Status)
}

// TrackingApplicationService 是追踪投影的业务入口。
// 同步编排路径通过 HTTP 调进来，编舞路径通过事件调进来，
// 两条路径最终都收敛到同一张迁移表上。
type TrackingApplicationService struct {
	repo     domain.TrackRepository
	tracer   trace.Tracer
	notifier StatusNotifier
}

func NewTrackingApplicationService(repo domain.TrackRepository, tracer trace.Tracer, notifier StatusNotifier) *TrackingApplicationService {
	return &TrackingApplicationService{repo: repo, tracer: tracer, notifier: notifier}
}

// CreateTracker 为订单建立追踪记录。订单与追踪一一对应，
// 重复创建返回 domain.ErrTrackerExists。
func (s *TrackingApplicationService) CreateTracker(ctx context.Context, orderID string) (*domain.Track, error) {
	ctx, span := s.tracer.Start(ctx, "tracking.CreateTracker")
	defer span.End()

	track, err := domain.NewTrack(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, track); err != nil {
		if !errors.Is(err, domain.ErrTrackerExists) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create tracker")
		}
		return nil, err
	}
	return track, nil
}

// GetTracker 按 ID 查询追踪记录。
func (s *TrackingApplicationService) GetTracker(ctx context.Context, trackerID string) (*domain.Track, error) {
	return s.repo.FindByID(ctx, trackerID)
}

// UpdateStatus 把追踪记录推进到 target。
// 从终态出发的迁移被迁移表拒绝，返回 domain.ErrInvalidTransition。
func (s *TrackingApplicationService) UpdateStatus(ctx context.Context, trackerID string, target domain.Status) (*domain.Track, error) {
	ctx, span := s.tracer.Start(ctx, "tracking.UpdateStatus")
	defer span.End()

	track, err := s.repo.FindByID(ctx, trackerID)
	if err != nil {
		return nil, err
	}
	if err := track.TransitionTo(target); err != nil {
		return nil, err
	}

	// 条件更新兜底并发：两条路径同时推进时只有一条会赢
	swapped, err := s.repo.CompareAndSetStatus(ctx, track.ID, domain.StatusCreated, target)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !swapped {
		return nil, errors.Wrap(domain.ErrInvalidTransition, "tracker already reached a terminal state")
	}

	if s.notifier != nil {
		s.notifier.NotifyStatusChange(track.ID, target)
	}
	return track, nil
}

// HandleEvent 消费共享主题上的全部事件，把它们投影为追踪状态。
// 任何对终态记录的事件都是 no-op；重复投递由一一对应关系和迁移表吸收。
func (s *TrackingApplicationService) HandleEvent(ctx context.Context, env event.Envelope) {
	ctx, span := s.tracer.Start(ctx, "tracking.HandleEvent", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	switch env.Message {
	case event.KindOrderCreated:
		data, err := env.DecodeOrderCreated()
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed order.created")
			return
		}
		if _, err := s.CreateTracker(ctx, data.OrderID); err != nil {
			if errors.Is(err, domain.ErrTrackerExists) {
				// 重投或乱序，追踪记录已经存在
				logger.Ctx(ctx).Debug().Str("orderId", data.OrderID).Msg("tracker already exists, ignoring")
				return
			}
			logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("failed to create tracker")
		}

	case event.KindInventoryChecked:
		data, err := env.DecodeInventoryChecked()
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed inventory.checked")
			return
		}
		if !data.IsAvailable {
			s.projectStatus(ctx, data.OrderID, domain.StatusCanceled)
		}

	case event.KindPaymentProcessed:
		data, err := env.DecodePaymentProcessed()
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed payment.processed")
			return
		}
		target := domain.StatusCanceled
		if data.Status == event.PaymentSuccess {
			target = domain.StatusPaid
		}
		s.projectStatus(ctx, data.OrderID, target)

	default:
		// 其他种类的事件不归投影处理
	}
}

// projectStatus 按订单把追踪记录推进到 target。
// broker 不保证因果序，事件可能先于 order.created 到达；
// 这种情况下先补建追踪记录再推进，而不是丢掉这次状态变化。
func (s *TrackingApplicationService) projectStatus(ctx context.Context, orderID string, target domain.Status) {
	track, err := s.repo.FindByOrderID(ctx, orderID)
	if errors.Is(err, domain.ErrTrackerNotFound) {
		logger.Ctx(ctx).Warn().Str("orderId", orderID).Msg("event arrived before tracker creation, creating it now")
		if track, err = s.CreateTracker(ctx, orderID); errors.Is(err, domain.ErrTrackerExists) {
			track, err = s.repo.FindByOrderID(ctx, orderID)
		}
	}
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", orderID).Msg("cannot load tracker for projection")
		return
	}

	if !track.Status.CanTransition(target) {
		// 终态后到达的事件按 no-op 处理，绝不回退已定结果
		logger.Ctx(ctx).Info().
			Str("orderId", orderID).
			Str("current", string(track.Status)).
			Str("target", string(target)).
			Msg("ignoring event against terminal tracker")
		return
	}

	swapped, err := s.repo.CompareAndSetStatus(ctx, track.ID, track.Status, target)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", orderID).Msg("failed to project tracker status")
		return
	}
	if !swapped {
		logger.Ctx(ctx).Info().Str("orderId", orderID).Msg("tracker changed concurrently, keeping existing result")
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyStatusChange(track.ID, target)
	}
	logger.Ctx(ctx).Info().Str("orderId", orderID).Str("status", string(target)).Msg("tracker status projected")
}
