package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"cantine/internal/models"
)

// SMTPConfig holds the outbound mail settings. To may list several
// recipients separated by commas.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Enabled reports whether the config is complete enough to send.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.To != ""
}

// SMTPNotifier mails the closing summary to the accounting address.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier builds the mail channel.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	if cfg.From == "" {
		cfg.From = "cafeteria@local"
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) Name() string { return "smtp" }

// SendClosingSummary sends one plain-text mail.
func (n *SMTPNotifier) SendClosingSummary(ctx context.Context, dateISO string, t models.Totals) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := splitRecipients(n.cfg.To)
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	var auth smtp.Auth
	if n.cfg.User != "" && n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + strings.Join(recipients, ", "),
		"Subject: " + Subject(dateISO),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		SummaryBody(dateISO, t),
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, recipients, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

func splitRecipients(to string) []string {
	var out []string
	for _, part := range strings.Split(to, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
