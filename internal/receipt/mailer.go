package receipt

import (
	"errors"
	"fmt"
	"io"
	"net/mail"

	"gopkg.in/gomail.v2"
)

var ErrInvalidEmail = errors.New("invalid email address")

// Sender delivers messages. Satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer emails invoice PDFs to customers.
type Mailer struct {
	sender Sender
	from   string
}

// NewMailer creates a Mailer that delivers through an SMTP server.
func NewMailer(host string, port int, user, password, from string) *Mailer {
	return NewMailerWithSender(gomail.NewDialer(host, port, user, password), from)
}

// NewMailerWithSender creates a Mailer with a custom Sender.
func NewMailerWithSender(sender Sender, from string) *Mailer {
	return &Mailer{sender: sender, from: from}
}

// SendInvoice mails pdf to the given address as an attachment.
func (m *Mailer) SendInvoice(to string, doc Document, pdf []byte) error {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return ErrInvalidEmail
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", addr.Address)
	msg.SetHeader("Subject", fmt.Sprintf("Your invoice from %s", doc.RestaurantName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Thank you for dining with us.\n\nTable %s, total %s. Your invoice is attached.\n",
		doc.TableID, doc.Totals.Total.StringFixed(2)))
	msg.Attach(fmt.Sprintf("invoice-%s.pdf", doc.TableID), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}
	return nil
}
