package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TimelinePG struct{ pg *PG }

var _ TimelineRepository = (*TimelinePG)(nil)

func (r *TimelinePG) AppendEvent(ctx context.Context, e TimelineEvent) error {
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = r.pg.q(ctx).Exec(ctx, `
		INSERT INTO order_events (order_id, event_type, payload, occurred_at)
		VALUES ($1,$2,$3,$4)`, e.OrderID, e.EventType, b, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

func (r *TimelinePG) GetTimeline(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]TimelineEvent, error) {
	rows, err := r.pg.q(ctx).Query(ctx, `
		SELECT event_type, payload, occurred_at
		FROM order_events WHERE order_id=$1
		ORDER BY occurred_at ASC, id ASC
		LIMIT $2 OFFSET $3`, orderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select order events: %w", err)
	}
	defer rows.Close()

	out := make([]TimelineEvent, 0)
	for rows.Next() {
		var (
			t          string
			payloadRaw []byte
			at         time.Time
		)
		if err := rows.Scan(&t, &payloadRaw, &at); err != nil {
			return nil, err
		}
		var pl map[string]any
		_ = json.Unmarshal(payloadRaw, &pl)
		out = append(out, TimelineEvent{OrderID: orderID, EventType: t, Payload: pl, OccurredAt: at})
	}
	return out, rows.Err()
}
