package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/pkg/errors"
)

// Decision is the outcome of an approve/reject/return transition, addressed
// to the requester.
type Decision struct {
	Email  string
	Name   string
	Asset  string
	Kind   string // "custom" or "borrow"
	Status string
	At     time.Time
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

type Mailer struct {
	dialer sender
	from   string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	d := mail.NewDialer(host, port, user, pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.Timeout = 10 * time.Second
	if from == "" {
		from = user
	}
	return &Mailer{dialer: d, from: from}
}

// Message builds the notification for d without sending it.
func (m *Mailer) Message(d Decision) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", d.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Your %s request for %s was %s", d.Kind, d.Asset, strings.ToLower(d.Status)))

	greeting := "Hello"
	if d.Name != "" {
		greeting += " " + d.Name
	}
	body := fmt.Sprintf("%s,\n\nYour %s request for %q is now %s (%s).\n",
		greeting, d.Kind, d.Asset, d.Status, d.At.UTC().Format(time.RFC1123))
	msg.SetBody("text/plain", body)
	return msg
}

// NotifyDecision sends the decision mail. The SMTP dialogue does not observe
// ctx once started; ctx only short-circuits an already cancelled call.
func (m *Mailer) NotifyDecision(ctx context.Context, d Decision) error {
	if d.Email == "" {
		return errors.New("decision has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.Message(d)); err != nil {
		return errors.Wrapf(err, "send decision mail to %s", d.Email)
	}
	return nil
}
