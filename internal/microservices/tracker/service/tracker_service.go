package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"table-service/internal/common/apperr"
	"table-service/internal/common/logger"
	"table-service/internal/domain"
	"table-service/internal/events"
	"table-service/internal/repository"
)

const (
	DefaultTimelineLimit = 50
	MaxTimelineLimit     = 200
)

// OrderView is the current state of an order as shown to trackers.
type OrderView struct {
	OrderID   uuid.UUID          `json:"order_id"`
	Code      string             `json:"order_code"`
	TableID   int64              `json:"table_id"`
	Status    domain.OrderStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type TrackerServiceInterface interface {
	Record(ctx context.Context, e domain.Event) error
	GetOrderView(ctx context.Context, id uuid.UUID) (OrderView, error)
	GetOrderTimeline(ctx context.Context, id uuid.UUID, limit, offset int) ([]repository.TimelineEvent, error)
}

type TrackerService struct {
	orders   repository.OrderRepository
	timeline repository.TimelineRepository
	log      *logger.Logger
}

func NewTrackerService(orders repository.OrderRepository, timeline repository.TimelineRepository, log *logger.Logger) *TrackerService {
	return &TrackerService{orders: orders, timeline: timeline, log: log}
}

// Register subscribes the recorder to every event.
func (s *TrackerService) Register(d *events.Dispatcher) {
	d.Subscribe(events.AllEvents, "tracker.record", s.Record)
}

// Record appends e to its order's timeline.
func (s *TrackerService) Record(ctx context.Context, e domain.Event) error {
	payload, err := eventPayload(e)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", e.EventName(), err)
	}
	if err := s.timeline.AppendEvent(ctx, repository.TimelineEvent{
		OrderID:    e.AggregateID(),
		EventType:  e.EventName(),
		Payload:    payload,
		OccurredAt: e.OccurredAt(),
	}); err != nil {
		return err
	}
	s.log.Debug("timeline_event_recorded", map[string]any{"order_id": e.AggregateID().String(), "event": e.EventName()})
	return nil
}

func (s *TrackerService) GetOrderView(ctx context.Context, id uuid.UUID) (OrderView, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return OrderView{}, err
	}
	return OrderView{OrderID: o.ID, Code: o.Code, TableID: o.TableID, Status: o.Status, UpdatedAt: lastChange(o)}, nil
}

func (s *TrackerService) GetOrderTimeline(ctx context.Context, id uuid.UUID, limit, offset int) ([]repository.TimelineEvent, error) {
	if limit == 0 {
		limit = DefaultTimelineLimit
	}
	if limit < 0 || limit > MaxTimelineLimit || offset < 0 {
		return nil, apperr.WithMetadata(apperr.CodeInvalidPagination, "limit must be within 1..200 and offset non-negative",
			map[string]string{"limit": fmt.Sprint(limit), "offset": fmt.Sprint(offset)})
	}
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.timeline.GetTimeline(ctx, id, limit, offset)
}

func eventPayload(e domain.Event) (map[string]any, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func lastChange(o *domain.Order) time.Time {
	last := o.CreatedAt
	for _, t := range []*time.Time{o.SubmittedAt, o.InProgressAt, o.ReadyAt, o.ServedAt, o.PaidAt, o.CancelledAt} {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	return last
}
