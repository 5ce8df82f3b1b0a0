package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
)

// SMTPSender envia correos via SMTP.
type SMTPSender struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	fromName   string
	useTLS     bool
	appBaseURL string
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool, appBaseURL string) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		fromName:   fromName,
		useTLS:     useTLS,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}, nil
}

func (s *SMTPSender) SendResetPasswordEmail(ctx context.Context, toEmail, token string) error {
	resetURL := s.appBaseURL + "/v1/auth/reset-password?token=" + url.QueryEscape(token)
	subject := "Reset password"
	body := fmt.Sprintf(
		"Dear user,\nTo reset your password, click on this link: %s\nIf you did not request any password resets, then ignore this email.\n",
		resetURL,
	)
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	verifyURL := s.appBaseURL + "/v1/auth/verify-email?token=" + url.QueryEscape(token)
	subject := "Email Verification"
	body := fmt.Sprintf(
		"Dear user,\nTo verify your email, click on this link: %s\nIf you did not create an account, then ignore this email.\n",
		verifyURL,
	)
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) send(_ context.Context, toEmail, subject, body string) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}

	msg := buildMessage(s.from, s.fromName, toEmail, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if s.useTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.from); err != nil {
			return err
		}
		if err := client.Rcpt(toEmail); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write([]byte(msg)); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg))
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
