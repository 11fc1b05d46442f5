// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mail-dash-lite/internal/email"
)

// Provider is the interface that delivery backends must implement.
// Each backend submits fully assembled messages to its target service
// (Gmail SMTP relay, AWS SES, stdout for dry runs).
type Provider interface {
	// Deliver submits the message in a single attempt, using the message's
	// envelope recipient list. It returns a Result for outcomes the relay
	// answered (including partial per-recipient rejection) and an error
	// when the transaction could not proceed at all.
	Deliver(ctx context.Context, msg *email.Message) (*email.Result, error)

	// Check verifies that the backend is reachable before any delivery
	// attempt is made. Backends without a meaningful reachability probe
	// return nil.
	Check(ctx context.Context) error

	// Name returns the human-readable name of this backend.
	Name() string
}
