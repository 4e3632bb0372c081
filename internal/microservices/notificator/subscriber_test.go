package notificator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-service/internal/common/logger"
)

type ackRecorder struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type broadcastRecorder struct {
	channels []string
	bodies   [][]byte
}

func (b *broadcastRecorder) Broadcast(channel string, msg []byte) int {
	b.channels = append(b.channels, channel)
	b.bodies = append(b.bodies, msg)
	return 1
}

func delivery(t *testing.T, ack amqp.Acknowledger, tag uint64, key string, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, RoutingKey: key, Body: body}
}

func validBody(t *testing.T, key string) []byte {
	t.Helper()
	msg, err := newMessage(key, uuid.New(), StatusChanged{})
	require.NoError(t, err)
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestSubscriberForwardsAndAcks(t *testing.T) {
	ack := &ackRecorder{}
	out := &broadcastRecorder{}
	sub := NewSubscriber(out, logger.Discard(), nil)

	body := validBody(t, KeyOrderStatus)
	sub.handle(delivery(t, ack, 1, KeyOrderStatus, body))
	sub.handle(delivery(t, ack, 2, KeyTicketChanged, validBody(t, KeyTicketChanged)))

	assert.Equal(t, []string{ChannelCustomer, ChannelKitchen}, out.channels)
	assert.Equal(t, body, out.bodies[0])
	assert.Equal(t, []uint64{1, 2}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestSubscriberRejectsMalformed(t *testing.T) {
	ack := &ackRecorder{}
	out := &broadcastRecorder{}
	sub := NewSubscriber(out, logger.Discard(), nil)

	sub.handle(delivery(t, ack, 7, KeyOrderStatus, []byte("{not json")))
	sub.handle(delivery(t, ack, 8, KeyOrderStatus, []byte(`{"order_id":"`+uuid.NewString()+`"}`)))

	assert.Empty(t, out.channels)
	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{7, 8}, ack.nacked)
	assert.Equal(t, []bool{false, false}, ack.requeue)
}

func TestSubscriberRun(t *testing.T) {
	ack := &ackRecorder{}
	out := &broadcastRecorder{}
	sub := NewSubscriber(out, logger.Discard(), nil)

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- delivery(t, ack, 1, KeyOrderPaid, validBody(t, KeyOrderPaid))
	close(deliveries)
	err := sub.Run(context.Background(), deliveries)
	assert.ErrorIs(t, err, errDeliveriesClosed)
	assert.Equal(t, []uint64{1}, ack.acked)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx, make(chan amqp.Delivery)) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
