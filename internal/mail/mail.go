// Package mail renders and delivers the account activation and password reset mails.
package mail

import (
	"bytes"         // Template output buffer
	"context"       // Request scoped cancellation
	"embed"         // Bundled templates
	"fmt"           // Error formatting
	"strings"       // Subject trimming
	"text/template" // Mail body rendering
	"time"          // Link lifetimes

	"accounts_service/internal/domain"  // User model
	"accounts_service/internal/metrics" // Mail counters

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gopkg.in/gomail.v2"         // SMTP delivery
)

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// ActivationSubject is the subject line of the activation mail
const ActivationSubject = "Please Activate Your Account."

// Message is a rendered plain text mail
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an SMTP relay
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given relay
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

// Send dials the relay and sends one message
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	Logger logrus.FieldLogger
}

// Send logs the message
func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}

// Mailer renders account mails and hands them to a Sender
type Mailer struct {
	Sender            Sender
	SiteURL           string // Scheme and host used in links
	ProjectName       string
	ActivationTimeout time.Duration // Lifetime of activation links, zero leaves it out of the mail
}

type linkData struct {
	ProjectName string
	SiteURL     string
	Name        string
	Email       string
	UID         string
	Token       string
	ValidFor    string // Human readable link lifetime
}

// SendActivation mails the account activation link
func (m *Mailer) SendActivation(ctx context.Context, user *domain.User, uid, token string) error {
	data := m.data(user, uid, token)
	data.ValidFor = humanDuration(m.ActivationTimeout)
	body, err := render("activate_email.txt", data)
	if err == nil {
		err = m.Sender.Send(ctx, Message{To: user.Email, Subject: ActivationSubject, Body: body})
	}
	metrics.RecordMail("activation", err == nil)
	return err
}

// SendPasswordReset mails the password reset link
func (m *Mailer) SendPasswordReset(ctx context.Context, user *domain.User, uid, token string) error {
	data := m.data(user, uid, token)
	subject, err := render("password_reset_subject.txt", data)
	if err != nil {
		metrics.RecordMail("password_reset", false)
		return err
	}
	body, err := render("password_reset_email.txt", data)
	if err == nil {
		// Subjects must not contain newlines
		err = m.Sender.Send(ctx, Message{To: user.Email, Subject: strings.Join(strings.Fields(subject), " "), Body: body})
	}
	metrics.RecordMail("password_reset", err == nil)
	return err
}

func (m *Mailer) data(user *domain.User, uid, token string) linkData {
	name := user.Name
	if name == "" {
		name = user.Email
	}
	return linkData{
		ProjectName: m.ProjectName,
		SiteURL:     strings.TrimRight(m.SiteURL, "/"),
		Name:        name,
		Email:       user.Email,
		UID:         uid,
		Token:       token,
	}
}

// humanDuration spells out d in the largest whole unit, e.g. "1 day" or "90 minutes"
func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0:
		return plural(int64(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	}
	return plural(int64(d.Round(time.Second)/time.Second), "second")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
