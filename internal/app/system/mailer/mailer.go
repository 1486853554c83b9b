// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Sender delivers one email.
type Sender interface {
	Send(email Email) error
}

// Mailer sends emails via SMTP.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Config holds the configuration for creating a Mailer.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// New creates a new Mailer. log should not feed back into an email sink.
func New(cfg Config, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.From,
		fromName: cfg.FromName,
		log:      log,
		sendMail: smtp.SendMail,
	}
}

// Email represents an email to be sent.
type Email struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

var errNoRecipients = errors.New("email has no recipients")

// Send sends an email. If HTMLBody is provided, sends a multipart email with both
// plain text and HTML versions.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return errNoRecipients
	}
	msg := m.compose(email)

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := m.sendMail(addr, auth, m.from, email.To, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.log.Debug("email sent",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

func (m *Mailer) compose(email Email) []byte {
	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", headerSafe(email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody == "" {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(email.TextBody)
		return msg.Bytes()
	}

	boundary := randomBoundary()
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(email.TextBody)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(email.HTMLBody)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

// headerSafe strips CR and LF so a subject cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// randomBoundary generates a random boundary string for multipart emails.
func randomBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return "----=_Part_" + hex.EncodeToString(b)
}
