package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/kinboost-api/internal/config"
	"github.com/kinboost-api/internal/domain"
)

// Mailer sends HTML emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	fromName string
	username string
	password string
	useTLS   bool
}

// NewMailer returns an SMTP mailer, or a disabled one when no host is
// configured. The disabled mailer fails every send with domain.ErrConfig.
func NewMailer(cfg *config.Config) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return NewDisabledMailer("SMTP_HOST not configured")
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		useTLS:   cfg.SMTPUseTLS,
	}
}

func (m *mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildMessage(m.from, m.fromName, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if !m.useTLS {
		return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}
	headers := []string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + encodeHeader(subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}

type disabledMailer struct {
	reason string
}

func NewDisabledMailer(reason string) Mailer {
	return &disabledMailer{reason: reason}
}

func (d *disabledMailer) SendEmail(_ context.Context, _, _, _ string) error {
	return d.Unavailable()
}

// Unavailable reports why nothing can be sent.
func (d *disabledMailer) Unavailable() error {
	return fmt.Errorf("%s: %w", d.reason, domain.ErrConfig)
}
