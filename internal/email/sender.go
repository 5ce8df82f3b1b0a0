package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para el envío de correos de los flujos de
// autenticación.
type Sender interface {
	SendResetPasswordEmail(ctx context.Context, toEmail, token string) error
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendResetPasswordEmail(_ context.Context, _, _ string) error {
	return s.err()
}

func (s *disabledSender) SendVerificationEmail(_ context.Context, _, _ string) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
