package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/valeevte/PriceTracker/internal/products"
)

// Sender delivers rendered content to a list of recipients in one send.
type Sender interface {
	Send(ctx context.Context, c Content, to []string) error
}

// MailConfig configures SMTP delivery.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Mailer sends notifications over SMTP. Recipients are BCC'd so subscribers
// never see each other's addresses.
type Mailer struct {
	client *mail.Client
	from   string
}

// NewMailer creates a Mailer from cfg.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mailer: smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	opts := []mail.Option{mail.WithTLSPortPolicy(mail.TLSOpportunistic), mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: new client: %w", err)
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{client: client, from: from}, nil
}

// Send delivers c to every address in to as one message.
func (m *Mailer) Send(ctx context.Context, c Content, to []string) error {
	if len(to) == 0 {
		return nil
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.Bcc(to...); err != nil {
		return fmt.Errorf("mailer: recipients: %w", err)
	}
	msg.Subject(c.Subject)
	msg.SetBodyString(mail.TypeTextHTML, c.Body)
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// LogSender writes notifications to the log instead of sending them.
// Used when no SMTP host is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, c Content, to []string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notify: email (log only)", "subject", c.Subject, "recipients", len(to))
	return nil
}

// Notifier renders and sends notifications.
type Notifier struct {
	sender Sender
}

// NewNotifier wraps sender.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) Render(info products.Info, kind Kind) (Content, error) {
	return Render(info, kind)
}

func (n *Notifier) Send(ctx context.Context, c Content, to []string) error {
	return n.sender.Send(ctx, c, to)
}
