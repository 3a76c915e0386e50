// Package notify relays legitimate enquiries by email.
package notify

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/enquiry"
	"storefront/pkg/logger"
)

// ErrNotConfigured is returned when no sender or owner address is available.
var ErrNotConfigured = errors.New("mail transport not configured")

// Message is one outgoing email. HTML is optional.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, m Message) error

func (f SenderFunc) Send(ctx context.Context, m Message) error { return f(ctx, m) }

// SendError wraps a failed owner notice.
type SendError struct {
	To  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.To, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Result reports what was delivered.
type Result struct {
	OwnerSent bool
	AckSent   bool
	AckErr    error
}

// Dispatcher sends the owner notice and the best-effort acknowledgement.
type Dispatcher struct {
	sender   Sender
	from     string
	ownerTo  string
	composer Composer
}

func NewDispatcher(s Sender, from, ownerTo string, c Composer) *Dispatcher {
	return &Dispatcher{sender: s, from: from, ownerTo: ownerTo, composer: c}
}

// Notify returns an error only when the owner notice fails. A failed
// acknowledgement is logged and reported in Result.
func (d *Dispatcher) Notify(ctx context.Context, e enquiry.Enquiry) (Result, error) {
	var res Result

	if d == nil || d.sender == nil || d.from == "" || d.ownerTo == "" {
		return res, ErrNotConfigured
	}

	owner, err := d.composer.OwnerNotice(e)
	if err != nil {
		return res, err
	}
	owner.From = d.from
	owner.To = d.ownerTo

	if err := d.sender.Send(ctx, owner); err != nil {
		return res, &SendError{To: owner.To, Err: err}
	}
	res.OwnerSent = true

	ack, err := d.composer.Acknowledgement(e)
	if err == nil {
		ack.From = d.from
		ack.ReplyTo = d.ownerTo
		err = d.sender.Send(ctx, ack)
	}
	if err != nil {
		logger.LogWarn("Auto-reply to %s failed: %v", e.Email, err)
		res.AckErr = err
		return res, nil
	}
	res.AckSent = true

	return res, nil
}
