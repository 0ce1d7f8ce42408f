package kafka

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/email"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

type publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// MailQueue hands booking emails to the worker through the notifications topic.
type MailQueue struct {
	producer publisher
	topic    string
}

func NewMailQueue(producer publisher, topic string) *MailQueue {
	return &MailQueue{producer: producer, topic: topic}
}

func (q *MailQueue) SendBookingConfirmation(ctx context.Context, to string, booking *domain.Booking, eTicket string) error {
	return q.enqueue(ctx, email.Message{Kind: email.KindConfirmation, To: to, Booking: *booking, ETicket: eTicket})
}

func (q *MailQueue) SendBookingUpdate(ctx context.Context, to string, booking *domain.Booking) error {
	return q.enqueue(ctx, email.Message{Kind: email.KindUpdate, To: to, Booking: *booking})
}

func (q *MailQueue) enqueue(ctx context.Context, msg email.Message) error {
	return q.producer.Publish(ctx, q.topic, msg.Booking.ID, msg)
}

// DecodeMail parses a message written by MailQueue.
func DecodeMail(msg kafka.Message) (email.Message, error) {
	var m email.Message
	err := json.Unmarshal(msg.Value, &m)
	return m, err
}
