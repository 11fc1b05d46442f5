// Package smtpclient implements an authenticated, TLS-secured SMTP client
// session for submitting pre-built messages to a Gmail-compatible relay.
package smtpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/shineum/mail-dash-lite/internal/email"
	"github.com/shineum/mail-dash-lite/internal/tlsconfig"
)

// authGuidance is the actionable message attached to authentication
// failures.
const authGuidance = "authentication failed: verify your email and App Password; " +
	"ensure 2FA is enabled and you are using an App Password, not your regular password"

// Config holds the relay endpoint settings.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// DefaultConfig returns the Gmail submission endpoint with a 30s connect
// timeout.
func DefaultConfig() Config {
	return Config{
		Host:    "smtp.gmail.com",
		Port:    587,
		Timeout: 30 * time.Second,
	}
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client wraps exactly one connection to the relay. Lifecycle is
// connect, zero or more sends, disconnect. A Client is not safe for
// concurrent use; concurrent senders each open their own Client.
type Client struct {
	sender   string
	password string
	cfg      Config
	conn     *smtp.Client
}

// New creates an unconnected Client for the given credentials and endpoint.
func New(sender, password string, cfg Config) *Client {
	return &Client{
		sender:   sender,
		password: password,
		cfg:      cfg,
	}
}

// Connect dials the relay, upgrades the connection with STARTTLS under a
// certificate-verifying TLS config, and authenticates. Authentication
// failures come back as KindAuth errors; every other failure is
// KindConnection.
func (c *Client) Connect(ctx context.Context) error {
	dialer := &net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr())
	if err != nil {
		return &Error{Kind: KindConnection, Detail: "connection failed", Err: err}
	}

	sc, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		conn.Close()
		return &Error{Kind: KindConnection, Detail: "smtp connection error", Err: err}
	}

	// StartTLS re-issues EHLO after the handshake.
	if err := sc.StartTLS(tlsconfig.Client(c.cfg.Host)); err != nil {
		sc.Close()
		return &Error{Kind: KindConnection, Detail: "smtp connection error", Err: err}
	}

	auth := smtp.PlainAuth("", c.sender, c.password, c.cfg.Host)
	if err := sc.Auth(auth); err != nil {
		sc.Close()
		if isAuthReply(err) {
			return &Error{Kind: KindAuth, Detail: authGuidance, Err: err}
		}
		return &Error{Kind: KindConnection, Detail: "smtp connection error", Err: err}
	}

	c.conn = sc
	return nil
}

// Close terminates the session gracefully. Teardown errors are swallowed so
// a failed QUIT never masks the outcome of the preceding send; the
// connection handle is always released.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Quit(); err != nil {
		c.conn.Close()
	}
	c.conn = nil
	return nil
}

// Send submits a pre-serialized message to the relay for exactly the given
// envelope recipient list, which must be the full To+Cc+Bcc set regardless
// of the headers the message carries.
//
// Partial failure (some recipients bounced while others were accepted)
// yields a Result with Success=false and the rejected list; the message was
// still delivered to the accepted subset. A refused sender, a refusal of
// every recipient, or a data-level rejection aborts the transaction and is
// returned as an error.
func (c *Client) Send(msg *email.Message, recipients []string) (*email.Result, error) {
	if c.conn == nil {
		return nil, &Error{Kind: KindNotConnected, Detail: "not connected; call Connect first or use WithClient"}
	}

	if err := c.conn.Mail(c.sender); err != nil {
		if code, ok := replyCode(err); ok && code >= 500 {
			return nil, &Error{Kind: KindSenderRefused, Detail: "sender address refused", Err: err}
		}
		return nil, &Error{Kind: KindSend, Detail: "failed to send email", Err: err}
	}

	var rejected []email.Rejection
	accepted := 0
	for _, rcpt := range recipients {
		if err := c.conn.Rcpt(rcpt); err != nil {
			rejected = append(rejected, email.Rejection{Address: rcpt, Reason: err.Error()})
			continue
		}
		accepted++
	}

	if accepted == 0 {
		// Abort the transaction so the connection stays usable.
		c.conn.Reset()
		return nil, &Error{Kind: KindRecipientsRefused, Detail: "all recipients were refused"}
	}

	w, err := c.conn.Data()
	if err != nil {
		return nil, &Error{Kind: KindData, Detail: "message data error", Err: err}
	}
	if _, err := w.Write(msg.Raw); err != nil {
		w.Close()
		return nil, &Error{Kind: KindData, Detail: "message data error", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Kind: KindData, Detail: "message data error", Err: err}
	}

	if len(rejected) > 0 {
		addrs := make([]string, 0, len(rejected))
		for _, rej := range rejected {
			addrs = append(addrs, rej.Address)
		}
		return &email.Result{
			Success:  false,
			Accepted: accepted,
			Rejected: rejected,
			Message:  fmt.Sprintf("some recipients rejected: %s", strings.Join(addrs, ", ")),
		}, nil
	}

	return &email.Result{
		Success:  true,
		Accepted: accepted,
		Message:  fmt.Sprintf("email sent successfully to %d recipient(s)", accepted),
	}, nil
}

// WithClient connects a fresh Client, runs fn, and disconnects on every
// exit path.
func WithClient(ctx context.Context, sender, password string, cfg Config, fn func(*Client) error) error {
	c := New(sender, password, cfg)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// isAuthReply reports whether err is an SMTP reply indicating an
// authentication problem (530, 534, 535).
func isAuthReply(err error) bool {
	code, ok := replyCode(err)
	if !ok {
		return false
	}
	switch code {
	case 530, 534, 535:
		return true
	}
	return false
}

// replyCode extracts the SMTP reply code from a protocol error.
func replyCode(err error) (int, bool) {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code, true
	}
	return 0, false
}
