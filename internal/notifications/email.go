package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"venivici/pkg/config"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

const smtpTimeout = 20 * time.Second

// ErrDelivery marks failures talking to the mail server, as opposed to unrenderable or unaddressable messages.
var ErrDelivery = errors.New("notification delivery failed")

// Mailer is the part of *mail.Client the email sink needs.
type Mailer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type EmailSink struct {
	mailer Mailer
	from   string
	log    *logger.Logger
}

// NewSMTPMailer builds a go-mail client that authenticates with the configured account over STARTTLS.
func NewSMTPMailer(cfg config.NotificationConfig) (*mail.Client, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(smtpTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

func NewEmailSink(mailer Mailer, from string, log *logger.Logger) *EmailSink {
	return &EmailSink{mailer: mailer, from: from, log: log}
}

func (s *EmailSink) SendBookingConfirmation(ctx context.Context, email string, booking *model.Booking) error {
	return s.send(ctx, KindBookingConfirmation, email, booking, nil)
}

func (s *EmailSink) SendPaymentReceipt(ctx context.Context, email string, booking *model.Booking, receipt model.Receipt) error {
	return s.send(ctx, KindPaymentReceipt, email, booking, &receipt)
}

func (s *EmailSink) SendPendingPayment(ctx context.Context, email string, booking *model.Booking) error {
	return s.send(ctx, KindPendingPayment, email, booking, nil)
}

func (s *EmailSink) send(ctx context.Context, kind Kind, to string, booking *model.Booking, receipt *model.Receipt) error {
	subject, body, err := render(kind, booking, receipt)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := s.mailer.DialAndSendWithContext(ctx, msg); err != nil {
		s.log.Error("Failed to send email",
			"kind", kind,
			"booking_id", booking.ID,
			"to", to,
			"error", err,
		)
		return fmt.Errorf("%w: %s email: %v", ErrDelivery, kind, err)
	}

	s.log.Info("Email sent",
		"kind", kind,
		"booking_id", booking.ID,
		"to", to,
	)
	return nil
}
