package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/observability"
)

// Sender dispatches a rendered report to a recipient. Failures are
// reported as false, never raised; callers log and move on.
type Sender interface {
	Send(subject, body, recipient string) bool
}

// SMTPSender sends mail through an SMTP relay with STARTTLS and login auth.
// Bodies are plain text rendered as simple HTML (newlines become <br>).
type SMTPSender struct {
	server   string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewSMTPSender creates a sender. username and password must be set.
func NewSMTPSender(server string, port int, username, password, from string, logger *zap.Logger) (*SMTPSender, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("smtp username and password must be set")
	}
	if from == "" {
		from = username
	}
	return &SMTPSender{
		server:   server,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger.Named("mail_sender"),
	}, nil
}

// Send delivers one message. Returns false on any failure after logging it.
func (s *SMTPSender) Send(subject, body, recipient string) bool {
	msg := s.buildMessage(subject, body, recipient)
	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.server)

	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, msg); err != nil {
		observability.MailSentTotal.WithLabelValues("failure").Inc()
		s.logger.Error("send mail failed", zap.String("recipient", recipient), zap.Error(err))
		return false
	}
	observability.MailSentTotal.WithLabelValues("success").Inc()
	s.logger.Info("mail sent", zap.String("recipient", recipient))
	return true
}

func (s *SMTPSender) buildMessage(subject, body, recipient string) []byte {
	html := strings.ReplaceAll(body, "\n", "<br>")
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", s.from)
	fmt.Fprintf(&sb, "To: %s\r\n", recipient)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(html)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
