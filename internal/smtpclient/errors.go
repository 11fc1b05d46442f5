package smtpclient

import "errors"

// ErrorKind classifies client failures so callers can distinguish
// retryable from fatal conditions without inspecting message text.
type ErrorKind int

const (
	// KindConnection covers dial, handshake and protocol-level connect failures.
	KindConnection ErrorKind = iota
	// KindAuth is an authentication failure; retrying cannot fix it.
	KindAuth
	// KindNotConnected means Send was called without an open connection.
	KindNotConnected
	// KindSenderRefused means the relay rejected the MAIL FROM address.
	KindSenderRefused
	// KindRecipientsRefused means every envelope recipient was refused.
	KindRecipientsRefused
	// KindData means the relay rejected the message content.
	KindData
	// KindSend covers any other failure during the send transaction.
	KindSend
)

// String returns a short label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindAuth:
		return "auth"
	case KindNotConnected:
		return "not_connected"
	case KindSenderRefused:
		return "sender_refused"
	case KindRecipientsRefused:
		return "recipients_refused"
	case KindData:
		return "data"
	default:
		return "send"
	}
}

// Error is the tagged error type for all client failures.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is (or wraps) an authentication failure.
func IsAuthError(err error) bool {
	var clientErr *Error
	return errors.As(err, &clientErr) && clientErr.Kind == KindAuth
}
