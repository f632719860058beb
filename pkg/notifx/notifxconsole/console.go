// Package notifxconsole implements notifx.EmailSender by logging the email.
// Intended for development and tests.
package notifxconsole

import (
	"context"
	"strings"

	"github.com/konnected/identity/pkg/logx"
	"github.com/konnected/identity/pkg/notifx"
)

// ConsoleProvider prints emails to the log instead of sending them.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage) error {
	logx.WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}).Info("notifx/console: email sent (dev mode)")

	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
