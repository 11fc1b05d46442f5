// Package stdout implements a Provider that prints messages to standard
// output instead of delivering them. Used for dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mail-dash-lite/internal/email"
)

// Provider prints the wire form of each message to its writer.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Deliver prints the envelope and the serialized message. It always
// succeeds for the full recipient list.
func (p *Provider) Deliver(_ context.Context, msg *email.Message) (*email.Result, error) {
	envelope := msg.Envelope()

	var b strings.Builder
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Envelope sender: %s\n", msg.Sender)
	fmt.Fprintf(&b, "Envelope recipients: %s\n", strings.Join(envelope, ", "))
	b.WriteString("----------------------------------------\n")
	b.Write(msg.Raw)
	if len(msg.Raw) > 0 && msg.Raw[len(msg.Raw)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("========================================\n")

	fmt.Fprint(p.writer, b.String())

	return &email.Result{
		Success:  true,
		Accepted: len(envelope),
		Message:  fmt.Sprintf("email sent successfully to %d recipient(s)", len(envelope)),
	}, nil
}

// Check always succeeds; there is nothing to reach.
func (p *Provider) Check(_ context.Context) error {
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
