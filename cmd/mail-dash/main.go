// Package main is the entry point for the mail dashboard CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shineum/mail-dash-lite/internal/config"
	"github.com/shineum/mail-dash-lite/internal/provider"
	"github.com/shineum/mail-dash-lite/internal/provider/ses"
	"github.com/shineum/mail-dash-lite/internal/provider/smtp"
	"github.com/shineum/mail-dash-lite/internal/provider/stdout"
	"github.com/shineum/mail-dash-lite/internal/send"
	"github.com/shineum/mail-dash-lite/internal/smtpclient"
	"github.com/shineum/mail-dash-lite/internal/template"
	"github.com/shineum/mail-dash-lite/internal/validate"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	to := flag.String("to", "", "recipient addresses (comma, semicolon or newline separated)")
	cc := flag.String("cc", "", "CC addresses (optional)")
	bcc := flag.String("bcc", "", "BCC addresses (optional)")
	subject := flag.String("subject", "", "email subject")
	content := flag.String("content", "", "HTML body content injected into the template")
	contentFile := flag.String("content-file", "", "file containing the HTML body content")
	templateName := flag.String("template", "base", "template name from the templates directory")
	attach := flag.String("attach", "", "comma-separated attachment files (names are resolved against the attachments directory)")
	vars := flag.String("vars", "", "extra placeholder values as KEY=VALUE pairs, comma-separated")
	listTemplates := flag.Bool("list-templates", false, "list available templates and exit")
	dryRun := flag.Bool("dry-run", false, "print the message instead of delivering it")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging.Level)

	store := template.NewStore(cfg.Paths.TemplatesDir)

	if *listTemplates {
		names, err := store.List()
		if err != nil {
			slog.Error("failed to list templates", "error", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	htmlContent := *content
	if *contentFile != "" {
		data, err := os.ReadFile(*contentFile)
		if err != nil {
			slog.Error("failed to read content file", "path", *contentFile, "error", err)
			os.Exit(1)
		}
		htmlContent = string(data)
	}

	creds := send.Credentials{
		SenderEmail: cfg.Gmail.SenderEmail,
		AppPassword: cfg.Gmail.AppPassword,
	}

	req := send.Request{
		To:              *to,
		Cc:              *cc,
		Bcc:             *bcc,
		Subject:         *subject,
		HTMLContent:     htmlContent,
		TemplateName:    *templateName,
		Placeholders:    parseVars(*vars),
		AttachmentPaths: resolveAttachments(*attach, cfg.Paths.AttachmentsDir),
	}

	if !*dryRun {
		if problems := send.Validate(req, creds); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(os.Stderr, "error: %s\n", p)
			}
			os.Exit(1)
		}
	}

	if creds.SenderEmail != "" && !validate.IsGmailAddress(creds.SenderEmail) {
		slog.Warn("sender is not a Gmail address; the relay may refuse it",
			"sender", creds.SenderEmail,
		)
	}

	prov := selectProvider(cfg, creds, *dryRun)

	orchestrator := send.New(send.Config{
		MaxRetries:   cfg.Send.MaxRetries,
		RetryBackoff: cfg.RetryBackoff(),
	}, creds.SenderEmail, store, template.NewRenderer(), prov)

	outcome := orchestrator.Send(context.Background(), req)

	if !outcome.Success {
		fmt.Fprintf(os.Stderr, "error: %s\n", outcome.Message)
		for _, addr := range outcome.Rejected {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", addr)
		}
		os.Exit(1)
	}
	fmt.Println(outcome.Message)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the delivery backend. An explicit provider setting
// wins; otherwise SMTP when Gmail credentials are configured, then SES,
// then stdout. A dry run always uses stdout.
func selectProvider(cfg *config.Config, creds send.Credentials, dryRun bool) provider.Provider {
	if dryRun {
		slog.Info("dry run, using stdout provider")
		return stdout.New()
	}

	smtpProvider := func() provider.Provider {
		return smtp.New(smtp.ProviderConfig{
			SenderEmail: creds.SenderEmail,
			AppPassword: send.CleanAppPassword(creds.AppPassword),
			Client: smtpclient.Config{
				Host:    cfg.SMTP.Host,
				Port:    cfg.SMTP.Port,
				Timeout: cfg.SMTPTimeout(),
			},
			CheckTimeout: cfg.PrecheckTimeout(),
		})
	}

	sesProvider := func() provider.Provider {
		p, err := ses.New(context.Background(), ses.ProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			slog.Error("failed to create SES provider", "error", err)
			os.Exit(1)
		}
		return p
	}

	switch cfg.Provider {
	case "smtp":
		slog.Info("using SMTP provider", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return smtpProvider()

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES provider selected but SES_REGION is required")
			os.Exit(1)
		}
		slog.Info("using AWS SES provider", "region", cfg.SES.Region)
		return sesProvider()

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New()

	case "":
		if cfg.GmailConfigured() {
			slog.Info("using SMTP provider (auto-detected)", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
			return smtpProvider()
		}
		if cfg.SESConfigured() {
			slog.Info("using AWS SES provider (auto-detected)", "region", cfg.SES.Region)
			return sesProvider()
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}

// resolveAttachments splits the comma-separated attachment list and resolves
// bare file names against the configured attachments directory. Entries that
// already contain a path separator are used as given.
func resolveAttachments(attach, dir string) []string {
	if strings.TrimSpace(attach) == "" {
		return nil
	}

	var paths []string
	for _, entry := range strings.Split(attach, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == filepath.Base(entry) {
			entry = filepath.Join(dir, entry)
		}
		paths = append(paths, entry)
	}
	return paths
}

// parseVars parses KEY=VALUE pairs into a placeholder map.
func parseVars(vars string) map[string]string {
	if strings.TrimSpace(vars) == "" {
		return nil
	}

	placeholders := make(map[string]string)
	for _, pair := range strings.Split(vars, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		placeholders[strings.TrimSpace(key)] = value
	}
	return placeholders
}
