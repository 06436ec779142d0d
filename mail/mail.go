package mail

import (
	"fmt"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
	gomail "gopkg.in/gomail.v2"
)

// Sender delivers out-of-band notification emails. Like the realtime layer
// it is best effort: a failed email never fails the request that triggered
// it, so all methods absorb errors into log lines.
type Sender struct {
	cfg *config.Config
}

func NewSender(cfg *config.Config) *Sender {
	if cfg.MailConfig.Host == "" {
		return nil // mail not configured
	}
	return &Sender{cfg: cfg}
}

func (s *Sender) send(to, subject, body string) {
	if s == nil {
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.MailConfig.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.MailConfig.Host, s.cfg.MailConfig.Port, s.cfg.MailConfig.Username, s.cfg.MailConfig.Password)
	if err := d.DialAndSend(m); err != nil {
		globals.AppLogger.Error("could not send mail", "to", to, "subject", subject, "error", err)
	}
}

// SendSubscriptionConfirmation thanks a marketing-site visitor for
// registering interest.
func (s *Sender) SendSubscriptionConfirmation(sub *types.Subscription) {
	body := fmt.Sprintf("Hi %s,\n\nthanks for your interest, we will be in touch shortly.\n", sub.Name)
	s.send(sub.Email, "Thanks for subscribing", body)
}

// SendInvoiceNotice informs the project client that an invoice was sent.
func (s *Sender) SendInvoiceNotice(clientEmail string, invoice *types.Invoice) {
	body := fmt.Sprintf("Invoice %s over %.2f is now available in your portal.\n", invoice.InvoiceNumber, float64(invoice.Amount)/100)
	s.send(clientEmail, "New invoice "+invoice.InvoiceNumber, body)
}

// SendWelcome greets a freshly registered portal member.
func (s *Sender) SendWelcome(user *types.User) {
	body := fmt.Sprintf("Hi %s,\n\nyour portal account is ready.\n", user.Name)
	s.send(user.Email, "Welcome to the portal", body)
}
