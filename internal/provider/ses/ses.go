// Package ses implements a Provider that sends messages via AWS SES v2.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mail-dash-lite/internal/email"
)

// ProviderConfig holds the configuration for creating a Provider.
type ProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Provider sends pre-assembled raw MIME messages via the AWS SES v2 API.
// Retry policy is owned by the caller; a Deliver call is a single attempt.
type Provider struct {
	client SendEmailAPI
}

// New creates a Provider with the given configuration.
func New(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Provider{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a Provider with a custom client, used for testing.
func NewWithClient(client SendEmailAPI) *Provider {
	return &Provider{client: client}
}

// Deliver submits the message's serialized MIME text as a raw SES email.
// The Destination carries the full To/Cc/Bcc envelope explicitly, so Bcc
// recipients are delivered without ever appearing in the message headers.
func (p *Provider) Deliver(ctx context.Context, msg *email.Message) (*email.Result, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.Sender),
		Destination: &types.Destination{
			ToAddresses:  msg.Recipients.To,
			CcAddresses:  msg.Recipients.Cc,
			BccAddresses: msg.Recipients.Bcc,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{
				Data: msg.Raw,
			},
		},
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return nil, fmt.Errorf("SES API request failed: %w", err)
	}

	envelope := msg.Envelope()
	return &email.Result{
		Success:  true,
		Accepted: len(envelope),
		Message:  fmt.Sprintf("email sent successfully to %d recipient(s)", len(envelope)),
	}, nil
}

// Check reports the backend as reachable; SES is an HTTPS API, not a
// socket endpoint worth probing ahead of time.
func (p *Provider) Check(_ context.Context) error {
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ses"
}
