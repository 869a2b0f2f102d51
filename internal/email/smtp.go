package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional, some relays accept unauthenticated mail
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// SMTPSender implements Sender over go-mail. TLS mode is chosen from the
// port: 465 implicit TLS, 587 mandatory STARTTLS, anything else
// opportunistic.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{
		config: cfg,
		logger: logger.With("component", "smtp"),
	}
}

// Send builds the MIME message and delivers it in one dial.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, err := s.buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := mail.NewClient(s.config.Host, s.buildClientOptions()...)
	if err != nil {
		return "", fmt.Errorf("failed to create SMTP client: %w", err)
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("smtp: failed to send email",
			"error", err,
			"host", s.config.Host,
			"port", s.config.Port,
		)
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("smtp: email sent",
		"subject", email.Subject,
		"recipients", len(email.To),
		"duration", time.Since(start),
	)

	// SMTP does not hand back a provider id.
	return fmt.Sprintf("smtp-%d", time.Now().UnixNano()), nil
}

func (s *SMTPSender) buildMessage(email *Email) (*mail.Msg, error) {
	if len(email.To) == 0 {
		return nil, ErrNoRecipient
	}

	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = s.config.From
	}
	if s.config.FromName != "" && email.From == "" {
		if err := msg.FromFormat(s.config.FromName, from); err != nil {
			return nil, wrap(ErrInvalidFromAddress, err)
		}
	} else if err := msg.From(from); err != nil {
		return nil, wrap(ErrInvalidFromAddress, err)
	}

	if err := msg.To(email.To...); err != nil {
		return nil, wrap(ErrInvalidToAddress, err)
	}

	msg.Subject(email.Subject)

	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	return msg, nil
}

func (s *SMTPSender) buildClientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(s.config.Timeout),
	}

	switch s.config.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// 25, or 1025 for a local catcher.
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}

// LogSender writes messages to the log instead of delivering them. Used
// when SMTP is not configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "email")}
}

func (l *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipient
	}
	l.logger.InfoContext(ctx, "email not sent, smtp disabled",
		"subject", email.Subject,
		"recipients", len(email.To),
	)
	return "", nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*LogSender)(nil)
)
