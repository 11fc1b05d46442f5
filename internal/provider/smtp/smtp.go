// Package smtp implements a Provider that submits messages over an
// authenticated STARTTLS session to a Gmail-compatible relay.
package smtp

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/shineum/mail-dash-lite/internal/email"
	"github.com/shineum/mail-dash-lite/internal/smtpclient"
)

// defaultCheckTimeout bounds the bare TCP connectivity probe.
const defaultCheckTimeout = 5 * time.Second

// ProviderConfig holds the settings for creating a Provider.
type ProviderConfig struct {
	SenderEmail  string
	AppPassword  string
	Client       smtpclient.Config
	CheckTimeout time.Duration
}

// Provider delivers messages through the SMTP relay. Every Deliver call
// runs inside its own scoped client session.
type Provider struct {
	sender       string
	password     string
	client       smtpclient.Config
	checkTimeout time.Duration

	// dial is the connectivity probe, replaceable in tests.
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// New creates a Provider for the given credentials and relay endpoint.
func New(cfg ProviderConfig) *Provider {
	checkTimeout := cfg.CheckTimeout
	if checkTimeout <= 0 {
		checkTimeout = defaultCheckTimeout
	}
	return &Provider{
		sender:       cfg.SenderEmail,
		password:     cfg.AppPassword,
		client:       cfg.Client,
		checkTimeout: checkTimeout,
		dial:         net.DialTimeout,
	}
}

// Check performs a bare TCP connect to the relay host:port with a short
// timeout, so a dead network fails fast instead of consuming the full
// retry budget.
func (p *Provider) Check(_ context.Context) error {
	conn, err := p.dial("tcp", p.client.Addr(), p.checkTimeout)
	if err != nil {
		return fmt.Errorf("cannot connect to %s: %w", p.client.Addr(), err)
	}
	conn.Close()
	return nil
}

// Deliver opens a fresh session, submits the message to its full envelope
// recipient list, and disconnects on every exit path.
func (p *Provider) Deliver(ctx context.Context, msg *email.Message) (*email.Result, error) {
	var result *email.Result
	err := smtpclient.WithClient(ctx, p.sender, p.password, p.client, func(c *smtpclient.Client) error {
		var sendErr error
		result, sendErr = c.Send(msg, msg.Envelope())
		return sendErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}
