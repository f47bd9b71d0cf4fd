package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"
)

// ErrEmailDisabled is returned when the email notifier has no recipient or host.
var ErrEmailDisabled = errors.New("email notifications disabled")

// SMTPConfig configures EmailNotifier.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	To                 string
	InsecureSkipVerify bool
}

// Sender sends a composed message. *mail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// EmailNotifier delivers notifications over SMTP.
type EmailNotifier struct {
	cfg    SMTPConfig
	sender Sender
	logger *logrus.Logger
	sched  *TimerScheduler
}

// NewEmailNotifier returns a notifier that dials cfg.Host for every message.
func NewEmailNotifier(cfg SMTPConfig, logger *logrus.Logger) *EmailNotifier {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for local relays
	}
	d.Timeout = 10 * time.Second
	return newEmailNotifier(cfg, d, logger)
}

func newEmailNotifier(cfg SMTPConfig, sender Sender, logger *logrus.Logger) *EmailNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &EmailNotifier{cfg: cfg, sender: sender, logger: logger, sched: NewTimerScheduler()}
}

func (n *EmailNotifier) SendImmediate(ctx context.Context, title, message string, data map[string]string) error {
	if n.cfg.Host == "" || n.cfg.To == "" {
		return ErrEmailDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To)
	m.SetHeader("Subject", "fueltank: "+title)
	m.SetBody("text/html", renderEmail(title, message, data))

	if err := n.sender.DialAndSend(m); err != nil {
		n.logger.WithError(err).WithField("to", n.cfg.To).Error("send email")
		return fmt.Errorf("send email: %w", err)
	}
	n.logger.WithField("to", n.cfg.To).Debug("email sent")
	return nil
}

func (n *EmailNotifier) Schedule(_ context.Context, title, message string, trigger time.Time, data map[string]string) (string, error) {
	if n.cfg.Host == "" || n.cfg.To == "" {
		return "", ErrEmailDisabled
	}
	data = cloneData(data)
	return n.sched.At(trigger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = n.SendImmediate(ctx, title, message, data)
	}), nil
}

func (n *EmailNotifier) CancelAll(_ context.Context) error {
	n.sched.CancelAll()
	return nil
}

func renderEmail(title, message string, data map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n<p>%s</p>\n", html.EscapeString(title), html.EscapeString(message))
	if len(data) > 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("<ul>\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "<li>%s: <strong>%s</strong></li>\n", html.EscapeString(k), html.EscapeString(data[k]))
		}
		b.WriteString("</ul>\n")
	}
	b.WriteString("<small>Sent by fueltank.</small>\n")
	return b.String()
}
