// Package mail implements outbound mail over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	gomail "github.com/wneessen/go-mail"
	"github.com/pkg/errors"

	"coursehub/config"
	"coursehub/internal/domain/service"
)

// smtpService sends mail through a single client constructed at startup
// and reused for the life of the process.
type smtpService struct {
	client   *gomail.Client
	from     string
	fromName string
	frontend *config.FrontendConfig
	logger   *slog.Logger
}

// NewSMTPService is the constructor for the SMTP-backed MailService. When
// no SMTP host is configured, outbound mail degrades to log lines so local
// environments run without a mail relay.
func NewSMTPService(cfg *config.Config, logger *slog.Logger) (service.MailService, error) {
	if cfg.SMTP == nil || cfg.SMTP.Host == "" {
		logger.Warn("SMTP not configured, mail delivery is log-only")

		return &logMailService{logger: logger}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTP.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTP.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTP.Username),
			gomail.WithPassword(cfg.SMTP.Password),
		)
	}

	client, err := gomail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create SMTP client")
	}

	return &smtpService{
		client:   client,
		from:     cfg.SMTP.From,
		fromName: cfg.SMTP.FromName,
		frontend: cfg.Frontend,
		logger:   logger,
	}, nil
}

// Send renders the task's template and delivers it synchronously.
func (s *smtpService) Send(ctx context.Context, task *service.MailTask) error {
	subject, body, err := s.render(task)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return errors.Wrap(err, "failed to set mail sender")
	}
	if err := msg.To(task.To); err != nil {
		return errors.Wrap(err, "failed to set mail recipient")
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to send mail")
	}

	s.logger.Debug("Mail sent", slog.String("kind", string(task.Kind)), slog.String("to", task.To))

	return nil
}

func (s *smtpService) render(task *service.MailTask) (subject, body string, err error) {
	switch task.Kind {
	case service.MailVerification:
		link := s.verificationLink(task.Token)

		return "Verify your email address",
			fmt.Sprintf(
				"<p>Hi %s,</p><p>Confirm your email address to activate your account:</p><p><a href=%q>Verify email</a></p><p>The link expires in 24 hours.</p>",
				task.Name, link,
			), nil
	case service.MailEnrollment:
		return "You are enrolled",
			fmt.Sprintf(
				"<p>Hi %s,</p><p>Your payment was received and you now have access to <strong>%s</strong>.</p>",
				task.Name, task.CourseTitle,
			), nil
	default:
		return "", "", errors.Errorf("unknown mail kind: %s", task.Kind)
	}
}

// logMailService records the task instead of delivering it.
type logMailService struct {
	logger *slog.Logger
}

func (s *logMailService) Send(_ context.Context, task *service.MailTask) error {
	s.logger.Info("Mail suppressed, SMTP not configured",
		slog.String("kind", string(task.Kind)), slog.String("to", task.To))

	return nil
}

func (s *smtpService) verificationLink(token string) string {
	base := ""
	path := "/verify-email"
	if s.frontend != nil {
		base = s.frontend.BaseURL
		if s.frontend.VerifyPath != "" {
			path = s.frontend.VerifyPath
		}
	}

	return base + path + "?token=" + url.QueryEscape(token)
}
