package outreach

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"videoreach/types"
)

// SMTPConfig is the mail server connection plus the sender address.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends the campaign email to one recipient at a time, with the
// video thumbnail embedded inline and linking to the watch URL.
type Mailer struct {
	cfg     SMTPConfig
	subject string
	adText  string
	logger  *slog.Logger
}

// NewMailer creates a Mailer.
func NewMailer(cfg SMTPConfig, subject, adText string, logger *slog.Logger) *Mailer {
	if subject == "" {
		subject = "Check Out This Video"
	}
	return &Mailer{cfg: cfg, subject: subject, adText: adText, logger: logger}
}

// Send emails one recipient. The thumbnail is attached inline under the
// "thumbnail" content id referenced by the HTML body.
func (m *Mailer) Send(ctx context.Context, recipient types.AudienceRow, videoURL, thumbnailPath string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(recipient.Email); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(m.subject)

	body := fmt.Sprintf(`<html>
<body>
  <p>Hi %s,</p>
  <p>%s</p>
  <p>Click the link below to watch the video:</p>
  <p><a href="%s"><img src="cid:thumbnail" alt="Watch Video" style="width: 100%%; max-width: 600px;"/></a></p>
</body>
</html>`, recipient.Name, m.adText, videoURL)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if thumbnailPath != "" {
		msg.EmbedFile(thumbnailPath, gomail.WithFileName("thumbnail.jpg"), gomail.WithFileContentID("thumbnail"))
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", recipient.Email, err)
	}
	return nil
}
