// Package send implements the top-level send policy: input validation,
// connectivity pre-check, recipient resolution, message assembly, and
// delivery with bounded retry.
package send

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shineum/mail-dash-lite/internal/builder"
	"github.com/shineum/mail-dash-lite/internal/email"
	"github.com/shineum/mail-dash-lite/internal/provider"
	"github.com/shineum/mail-dash-lite/internal/smtpclient"
	"github.com/shineum/mail-dash-lite/internal/template"
	"github.com/shineum/mail-dash-lite/internal/validate"
)

// Config holds the retry policy for the delivery step.
type Config struct {
	// MaxRetries is the number of retries after the first attempt,
	// so MaxRetries+1 total tries.
	MaxRetries int
	// RetryBackoff is the fixed sleep between attempts.
	RetryBackoff time.Duration
}

// DefaultConfig returns the default retry policy: 3 total tries with a
// fixed 1-second back-off.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		RetryBackoff: time.Second,
	}
}

// Credentials is the sender identity supplied by the credential source.
// Empty strings signal "not configured".
type Credentials struct {
	SenderEmail string
	AppPassword string
}

// CleanAppPassword strips all whitespace from an app password,
// accommodating copy-pasted, space-grouped password strings.
func CleanAppPassword(password string) string {
	return strings.Join(strings.Fields(password), "")
}

// Request describes one send as raw operator input.
type Request struct {
	To              string
	Cc              string
	Bcc             string
	Subject         string
	HTMLContent     string
	TemplateName    string
	Placeholders    map[string]string
	AttachmentPaths []string
}

// Outcome is the single terminal result of a send: a success flag plus a
// human-readable message, and for partial failures the rejected addresses.
type Outcome struct {
	Success  bool
	Message  string
	Rejected []string
	Attempts int
}

// Orchestrator drives a complete send through a delivery provider.
type Orchestrator struct {
	cfg      Config
	sender   string
	store    *template.Store
	renderer *template.Renderer
	provider provider.Provider

	// sleep is the back-off between attempts, replaceable in tests.
	sleep func(time.Duration)
}

// New creates an Orchestrator delivering through prov as sender.
func New(cfg Config, sender string, store *template.Store, renderer *template.Renderer, prov provider.Provider) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		sender:   sender,
		store:    store,
		renderer: renderer,
		provider: prov,
		sleep:    time.Sleep,
	}
}

// Validate checks a request and credentials without any network activity
// and returns the full list of problems found, not just the first one.
func Validate(req Request, creds Credentials) []string {
	var problems []string

	if creds.SenderEmail == "" || creds.AppPassword == "" {
		problems = append(problems, "gmail credentials are not configured")
	} else if len(CleanAppPassword(creds.AppPassword)) < 16 {
		problems = append(problems, "app password looks too short; expected a 16-character App Password")
	}

	if strings.TrimSpace(req.To) == "" {
		problems = append(problems, "at least one recipient is required")
	} else if _, err := validate.ParseEmailInput(req.To); err != nil {
		problems = append(problems, err.Error())
	}

	if strings.TrimSpace(req.Subject) == "" {
		problems = append(problems, "subject is required")
	}

	var sizes []int64
	for _, path := range req.AttachmentPaths {
		name := filepath.Base(path)
		info, err := os.Stat(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("attachment not found: %s", name))
			continue
		}
		if err := validate.ValidateAttachmentSize(info.Size()); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
		if err := validate.ValidateAttachmentType(name); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
		sizes = append(sizes, info.Size())
	}
	if err := validate.ValidateTotalAttachmentSize(sizes); err != nil {
		problems = append(problems, err.Error())
	}

	return problems
}

// Send runs the full pipeline: connectivity pre-check, recipient
// resolution, message assembly, then delivery with bounded retry.
// Every path produces exactly one terminal Outcome.
func (o *Orchestrator) Send(ctx context.Context, req Request) Outcome {
	if err := o.provider.Check(ctx); err != nil {
		return Outcome{Message: fmt.Sprintf("network error: %v", err)}
	}

	recipients, outcome := o.resolveRecipients(req)
	if outcome != nil {
		return *outcome
	}

	msg, err := o.assemble(req, recipients)
	if err != nil {
		// Message shape problems are not fixed by retrying.
		return Outcome{Message: err.Error()}
	}

	return o.deliverWithRetry(ctx, msg)
}

// resolveRecipients parses the raw To/Cc/Bcc input. Any invalid To entry is
// fatal; invalid Cc/Bcc entries are dropped with a warning and the valid
// subset proceeds.
func (o *Orchestrator) resolveRecipients(req Request) (email.Recipients, *Outcome) {
	toList, err := validate.ParseEmailInput(req.To)
	if err != nil {
		return email.Recipients{}, &Outcome{Message: fmt.Sprintf("failed to parse recipients: %v", err)}
	}
	if len(toList) == 0 {
		return email.Recipients{}, &Outcome{Message: "no valid recipients found"}
	}

	ccList := parseOptional("cc", req.Cc)
	bccList := parseOptional("bcc", req.Bcc)

	return email.Recipients{To: toList, Cc: ccList, Bcc: bccList}, nil
}

// parseOptional parses an optional recipient field, keeping the valid
// subset when some entries fail validation.
func parseOptional(field, input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	list, err := validate.ParseEmailInput(input)
	if err != nil {
		slog.Warn("dropping invalid addresses", "field", field, "error", err)
	}
	return list
}

// assemble resolves the template, reads attachment files, and builds the
// MIME message. All failures here are immediate and non-retryable.
func (o *Orchestrator) assemble(req Request, recipients email.Recipients) (*email.Message, error) {
	templateName := req.TemplateName
	if templateName == "" {
		templateName = "base"
	}
	templatePath, err := o.store.Resolve(templateName)
	if err != nil {
		return nil, err
	}

	var attachments []email.Attachment
	for _, path := range req.AttachmentPaths {
		att, err := email.AttachmentFromFile(path)
		if err != nil {
			name := filepath.Base(path)
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("attachment not found: %s", name)
			}
			return nil, fmt.Errorf("cannot read attachment %s: %w", name, err)
		}
		attachments = append(attachments, att)
	}

	msg, err := builder.New(templatePath, o.renderer).Build(builder.Input{
		Sender:       o.sender,
		Recipients:   recipients,
		Subject:      req.Subject,
		HTMLContent:  req.HTMLContent,
		Placeholders: req.Placeholders,
		Attachments:  attachments,
	})
	if err != nil {
		return nil, fmt.Errorf("message build error: %w", err)
	}
	return msg, nil
}

// deliverWithRetry attempts delivery up to MaxRetries+1 times with a fixed
// back-off. Authentication failures short-circuit; credentials do not
// become valid by retrying.
func (o *Orchestrator) deliverWithRetry(ctx context.Context, msg *email.Message) Outcome {
	var (
		attempts int
		lastErr  string
		rejected []string
	)

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		attempts++

		result, err := o.provider.Deliver(ctx, msg)
		switch {
		case err != nil:
			lastErr = err.Error()
			if smtpclient.IsAuthError(err) {
				return Outcome{Message: lastErr, Attempts: attempts}
			}
			slog.Warn("delivery attempt failed", "attempt", attempts, "error", err)
		case result.Success:
			return Outcome{
				Success:  true,
				Message:  fmt.Sprintf("email sent successfully to %d recipient(s)", len(msg.Envelope())),
				Attempts: attempts,
			}
		default:
			lastErr = result.Message
			rejected = result.RejectedAddresses()
			slog.Warn("delivery attempt rejected recipients", "attempt", attempts, "rejected", rejected)
		}

		if attempt < o.cfg.MaxRetries {
			o.sleep(o.cfg.RetryBackoff)
		}
	}

	return Outcome{
		Message:  fmt.Sprintf("failed after %d attempts: %s", attempts, lastErr),
		Rejected: rejected,
		Attempts: attempts,
	}
}
