// Package notify delivers booking notifications: email through the
// Resend API and local desktop alerts. Delivery is best effort; booking
// flows never fail because a notification did.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/gen2brain/beeep"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Notifier sends a message to a fixed set of recipients.
type Notifier interface {
	Send(ctx context.Context, to []string, msg Message) error
}

// Console writes notifications to a writer instead of sending them.
// Used when no email credentials are configured.
type Console struct {
	Out io.Writer
}

func (c *Console) Send(_ context.Context, to []string, msg Message) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	_, err := fmt.Fprintf(c.Out, "notification for %v\nsubject: %s\n%s\n", to, msg.Subject, msg.Text)
	return err
}

// Desktop shows a local desktop notification.
func Desktop(title, body string) error {
	return beeep.Notify(title, body, "")
}
