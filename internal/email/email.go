// Package email defines the core data model for outbound email messages.
package email

import (
	"os"
	"path/filepath"
)

// Recipients holds the three recipient sets of an outbound message.
// Bcc addresses are never written into message headers; they are carried
// only in the SMTP envelope.
type Recipients struct {
	To  []string
	Cc  []string
	Bcc []string
}

// All returns To, Cc and Bcc concatenated in that order.
// Duplicates are preserved.
func (r Recipients) All() []string {
	all := make([]string, 0, len(r.To)+len(r.Cc)+len(r.Bcc))
	all = append(all, r.To...)
	all = append(all, r.Cc...)
	all = append(all, r.Bcc...)
	return all
}

// HasAny reports whether at least one recipient is present in any set.
func (r Recipients) HasAny() bool {
	return len(r.To) > 0 || len(r.Cc) > 0 || len(r.Bcc) > 0
}

// Attachment represents a file attached to an outbound message.
// If ContentType is empty, the type is inferred from the filename extension
// at build time.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// AttachmentFromFile reads the file at path and returns an Attachment named
// after the file's base name. The content type is left for inference.
func AttachmentFromFile(path string) (Attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Filename: filepath.Base(path),
		Content:  content,
	}, nil
}

// Message is a fully assembled outbound message. Raw holds the complete
// serialized MIME text, produced exactly once at build time and never
// mutated afterwards.
type Message struct {
	Sender     string
	Subject    string
	Recipients Recipients
	Raw        []byte
}

// Envelope returns the full SMTP envelope recipient list (To + Cc + Bcc).
// This is independent of which recipient headers appear in Raw.
func (m *Message) Envelope() []string {
	return m.Recipients.All()
}

// Rejection records a single envelope recipient refused by the relay.
type Rejection struct {
	Address string
	Reason  string
}

// Result describes the outcome of a single delivery attempt.
// Success is false when the relay accepted the transaction but bounced
// specific addresses; hard transaction failures are reported as errors, not
// as a Result.
type Result struct {
	Success  bool
	Accepted int
	Rejected []Rejection
	Message  string
}

// RejectedAddresses returns just the addresses of all rejected recipients.
func (r *Result) RejectedAddresses() []string {
	if len(r.Rejected) == 0 {
		return nil
	}
	addrs := make([]string, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		addrs = append(addrs, rej.Address)
	}
	return addrs
}
