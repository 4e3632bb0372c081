package notificator

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
)

// Broadcaster delivers a message to the clients of one channel.
type Broadcaster interface {
	Broadcast(channel string, msg []byte) int
}

// Subscriber consumes the notifications queue and pushes every message to the websocket clients.
type Subscriber struct {
	out Broadcaster
	log *logger.Logger
	m   *metrics.Metrics
}

func NewSubscriber(out Broadcaster, log *logger.Logger, m *metrics.Metrics) *Subscriber {
	return &Subscriber{out: out, log: log, m: m}
}

// Run handles deliveries until ctx is done. A closed delivery channel is an error.
func (s *Subscriber) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			s.handle(d)
		}
	}
}

// handle acks delivered messages. Malformed ones are rejected without requeue and
// dead-lettered by the queue.
func (s *Subscriber) handle(d amqp.Delivery) {
	channel := ChannelOf(d.RoutingKey)

	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.Type == "" {
		if err == nil {
			err = errMissingType
		}
		s.log.Error("notification_malformed", err, map[string]any{"routing_key": d.RoutingKey})
		s.m.Consumed(channel, "rejected")
		_ = d.Nack(false, false)
		return
	}

	n := s.out.Broadcast(channel, d.Body)
	s.log.Info("notification_received", map[string]any{
		"routing_key": d.RoutingKey,
		"order_id":    msg.OrderID.String(),
		"delivered":   n,
	})
	s.m.Consumed(channel, "ok")
	if err := d.Ack(false); err != nil {
		s.log.Error("notification_ack_failed", err, map[string]any{"routing_key": d.RoutingKey})
	}
}
