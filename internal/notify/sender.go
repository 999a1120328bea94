// Package notify renders task notifications and delivers them over mail
// and Telegram.
package notify

import (
	"context"
	"errors"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message once. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// MultiSender delivers a message through every sender and joins their errors.
type MultiSender []Sender

func (m MultiSender) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
