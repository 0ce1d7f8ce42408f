package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/email"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturePublisher struct {
	topic, key string
	payload    any
}

func (c *capturePublisher) Publish(_ context.Context, topic, key string, payload any) error {
	c.topic, c.key, c.payload = topic, key, payload
	return nil
}

func TestMailQueue_RoundTrip(t *testing.T) {
	pub := &capturePublisher{}
	q := NewMailQueue(pub, "notifications")
	booking := &domain.Booking{ID: "b-1", Reference: "ABCD1234", Status: domain.BookingStatusPending}

	require.NoError(t, q.SendBookingConfirmation(context.Background(), "ann@example.com", booking, "ET-1"))
	assert.Equal(t, "notifications", pub.topic)
	assert.Equal(t, "b-1", pub.key)

	value, err := json.Marshal(pub.payload)
	require.NoError(t, err)

	decoded, err := DecodeMail(kafka.Message{Value: value})
	require.NoError(t, err)
	assert.Equal(t, email.KindConfirmation, decoded.Kind)
	assert.Equal(t, "ann@example.com", decoded.To)
	assert.Equal(t, "ABCD1234", decoded.Booking.Reference)
	assert.Equal(t, "ET-1", decoded.ETicket)
}

func TestNewBookingEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := &domain.Booking{
		ID: "b-1", UserID: "u-1", FlightID: "f-1", CabinClass: domain.CabinBusiness,
		TotalPriceCents: 30000, Status: domain.BookingStatusCancelled,
		Passengers: []domain.Passenger{{}, {}, {}},
	}

	ev := NewBookingEvent(EventBookingCancelled, b, at)
	assert.Equal(t, EventBookingCancelled, ev.Type)
	assert.Equal(t, 3, ev.Passengers)
	assert.Equal(t, "BUSINESS", ev.CabinClass)
	assert.Equal(t, "cancelled", ev.Status)
	assert.Equal(t, at, ev.OccurredAt)
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, zap.NewNop())
	defer p.Close()
	assert.Error(t, p.CheckConnection(context.Background()))
}

type stubReader struct {
	msgs      []kafka.Message
	commitErr error
	committed atomic.Int32
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *stubReader) CommitMessages(context.Context, ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed.Add(1)
	return nil
}

func (r *stubReader) Close() error { return nil }

func TestConsumer_KeepsFailingMessageUncommitted(t *testing.T) {
	reader := &stubReader{msgs: []kafka.Message{{Offset: 7}}}
	consumer := NewReaderConsumer(reader, WithRetryBackoff(time.Millisecond, 2*time.Millisecond))

	var attempts atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, func(_ context.Context, msg kafka.Message) error {
			assert.Equal(t, int64(7), msg.Offset)
			attempts.Add(1)
			return errors.New("smtp down")
		})
	}()

	require.Eventually(t, func() bool { return attempts.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Zero(t, reader.committed.Load())
}

func TestConsumer_CommitErrorStops(t *testing.T) {
	reader := &stubReader{msgs: []kafka.Message{{Offset: 1}}, commitErr: errors.New("rebalance")}
	consumer := NewReaderConsumer(reader)

	err := consumer.Consume(context.Background(), func(context.Context, kafka.Message) error { return nil })

	assert.EqualError(t, err, "rebalance")
}
