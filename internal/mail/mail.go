// Package mail sends outbound notification email over SMTP. Delivery is
// fire-and-forget: failures are logged, never propagated to request handling.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/config"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
)

// Message is a plain-text outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages through a configured SMTP relay.
type Sender struct {
	cfg    config.SMTPConfig
	server string
	auth   smtp.Auth
	// send is swappable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg config.SMTPConfig) *Sender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Sender{
		cfg:    cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true when enough SMTP settings are present to send.
func (s *Sender) IsConfigured() bool {
	return s != nil && s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.From != ""
}

// Send delivers the message synchronously.
func (s *Sender) Send(m Message) error {
	if !s.IsConfigured() {
		return fmt.Errorf("mail not configured")
	}
	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(m.To, ", "),
		s.cfg.From,
		m.Subject,
		m.Body,
	))
	return s.send(s.server, s.auth, s.cfg.From, m.To, msg)
}

// SendAsync delivers the message on a background goroutine and logs failure.
func (s *Sender) SendAsync(m Message) {
	if !s.IsConfigured() {
		return
	}
	go func() {
		if err := s.Send(m); err != nil {
			logger.Warnf("mail send to %v failed: %v", m.To, err)
		}
	}()
}
