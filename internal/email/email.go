package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/domain"
)

type Kind string

const (
	KindConfirmation Kind = "booking_confirmation"
	KindUpdate       Kind = "booking_update"
)

// Message is one outgoing booking email. It is also the payload queued on Kafka.
type Message struct {
	Kind    Kind           `json:"kind"`
	To      string         `json:"to"`
	Booking domain.Booking `json:"booking"`
	ETicket string         `json:"eTicket,omitempty"`
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	cfg  config.EmailConfig
	send sendFunc
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

func (s *Sender) SendBookingConfirmation(ctx context.Context, to string, booking *domain.Booking, eTicket string) error {
	return s.Send(ctx, Message{Kind: KindConfirmation, To: to, Booking: *booking, ETicket: eTicket})
}

func (s *Sender) SendBookingUpdate(ctx context.Context, to string, booking *domain.Booking) error {
	return s.Send(ctx, Message{Kind: KindUpdate, To: to, Booking: *booking})
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.Host == "" || s.cfg.Sender == "" {
		return fmt.Errorf("email not configured: set email.host and email.sender")
	}
	if msg.To == "" {
		return fmt.Errorf("missing email recipient")
	}

	subject, body, err := Render(msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	raw := strings.Join([]string{
		"From: " + s.cfg.Sender,
		"To: " + msg.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	return s.send(addr, auth, s.cfg.Sender, []string{msg.To}, []byte(raw))
}

var (
	confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Booking Confirmation</h2>
  <p>Dear Passenger,</p>
  <p>Your flight booking has been received.</p>
  <h3>Booking Details</h3>
  <p><strong>Booking Reference:</strong> {{.Booking.Reference}}</p>
  <p><strong>Status:</strong> {{.Booking.Status}}</p>
  <p><strong>Total Price:</strong> {{money .Booking.TotalPriceCents}}</p>
  <p><strong>Cabin Class:</strong> {{.Booking.CabinClass}}</p>
  <p><strong>Passengers:</strong> {{range $i, $p := .Booking.Passengers}}{{if $i}}, {{end}}{{$p.FirstName}} {{$p.LastName}}{{end}}</p>
  <h3>E-Ticket</h3>
  <p>Your e-ticket number: <strong>{{.ETicket}}</strong></p>
  <p>Thank you for choosing our airline!</p>
</div>`))

	updateTmpl = template.Must(template.New("update").Funcs(funcs).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Booking Update</h2>
  <p>Dear Passenger,</p>
  <p>Your flight booking has been updated.</p>
  <h3>Updated Booking Details</h3>
  <p><strong>Booking Reference:</strong> {{.Booking.Reference}}</p>
  <p><strong>New Status:</strong> {{.Booking.Status}}</p>
  <p><strong>Total Price:</strong> {{money .Booking.TotalPriceCents}}</p>
  <p>If you have any questions, please contact our customer service.</p>
</div>`))

	funcs = template.FuncMap{"money": FormatCents}
)

// Render returns the subject and HTML body for msg.
func Render(msg Message) (string, string, error) {
	var tmpl *template.Template
	var subject string
	switch msg.Kind {
	case KindConfirmation:
		tmpl, subject = confirmationTmpl, "Booking Confirmation - "+msg.Booking.Reference
	case KindUpdate:
		tmpl, subject = updateTmpl, "Booking Update - "+msg.Booking.Reference
	default:
		return "", "", fmt.Errorf("unknown email kind %q", msg.Kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
