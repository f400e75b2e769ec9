package smtp

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/fest-portal-api/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	// SendEmail delivers one message. to may be a comma-separated list; every
	// address receives the same message.
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host       string
	port       string
	from       string
	senderName string
	replyTo    string
	username   string
	password   string
	send       func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		from:       cfg.SMTPFrom,
		senderName: cfg.SMTPSenderName,
		replyTo:    cfg.SMTPReplyTo,
		username:   cfg.SMTPUsername,
		password:   cfg.SMTPPassword,
		send:       smtp.SendMail,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	rcpts := splitRecipients(to)
	if len(rcpts) == 0 {
		return fmt.Errorf("no recipients")
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := m.send(addr, auth, m.from, rcpts, m.buildMessage(rcpts, subject, body, time.Now())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *mailer) buildMessage(rcpts []string, subject, body string, now time.Time) []byte {
	var b strings.Builder
	from := m.from
	if m.senderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fmt.Sprintf("%q", m.senderName)), m.from)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(rcpts, ", "))
	if m.replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", m.replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func splitRecipients(to string) []string {
	var out []string
	for _, a := range strings.Split(to, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
