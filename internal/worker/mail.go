// Package worker holds the background jobs run by cmd/worker.
package worker

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/email"
	fdkafka "github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

// MailHandler delivers emails queued on the notifications topic.
type MailHandler struct {
	sender MailSender
	log    *zap.Logger
}

func NewMailHandler(sender MailSender, log *zap.Logger) *MailHandler {
	return &MailHandler{sender: sender, log: log}
}

// Handle sends one queued email. Undecodable messages are logged and skipped; a send
// failure is returned so the message stays uncommitted.
func (h *MailHandler) Handle(ctx context.Context, msg kafka.Message) error {
	m, err := fdkafka.DecodeMail(msg)
	if err != nil {
		h.log.Error("skip undecodable mail message",
			zap.Int64("offset", msg.Offset),
			zap.Int("partition", msg.Partition),
			zap.Error(err))
		return nil
	}
	if err := h.sender.Send(ctx, m); err != nil {
		h.log.Error("send booking email", zap.String("kind", string(m.Kind)), zap.String("booking_id", m.Booking.ID), zap.Error(err))
		return err
	}
	h.log.Info("booking email sent", zap.String("kind", string(m.Kind)), zap.String("booking_id", m.Booking.ID))
	return nil
}
