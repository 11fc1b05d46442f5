// Package builder assembles outbound messages into MIME multipart wire text.
package builder

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shineum/mail-dash-lite/internal/email"
	"github.com/shineum/mail-dash-lite/internal/template"
)

// defaultPlainFallback is substituted when no plain-text alternative is
// supplied by the caller.
const defaultPlainFallback = "This email requires HTML support to view properly."

// fallbackContentType is used when a filename's extension maps to no known
// MIME type.
const fallbackContentType = "application/octet-stream"

// Input carries everything needed to build one message.
type Input struct {
	Sender            string
	Recipients        email.Recipients
	Subject           string
	HTMLContent       string
	Placeholders      map[string]string
	Attachments       []email.Attachment
	PlainTextFallback string
}

// Builder renders an HTML template and assembles complete MIME messages.
// A Builder is bound to one template path and owns its own MIME-type
// inference cache.
type Builder struct {
	templatePath string
	renderer     *template.Renderer
	types        typeCache
}

// New creates a Builder for the template at templatePath, rendering through
// the given Renderer.
func New(templatePath string, renderer *template.Renderer) *Builder {
	return &Builder{
		templatePath: templatePath,
		renderer:     renderer,
	}
}

// Build assembles a complete MIME message. Messages without attachments are
// a two-part multipart/alternative (plain first, HTML second, so HTML-capable
// clients prefer the HTML rendering); messages with attachments wrap that
// pair in a multipart/mixed envelope with one part per attachment.
//
// Bcc addresses never appear in any header; they travel only in the
// message's envelope recipient list. The returned Message is immutable.
func (b *Builder) Build(in Input) (*email.Message, error) {
	if !in.Recipients.HasAny() {
		return nil, fmt.Errorf("at least one recipient required")
	}

	finalHTML, err := b.renderer.Render(b.templatePath, in.HTMLContent, in.Placeholders)
	if err != nil {
		return nil, err
	}

	plain := in.PlainTextFallback
	if plain == "" {
		plain = defaultPlainFallback
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", in.Sender)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(in.Recipients.To, ", "))
	if len(in.Recipients.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(in.Recipients.Cc, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", in.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if len(in.Attachments) == 0 {
		alt := multipart.NewWriter(&buf)
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", alt.Boundary())
		if err := writeBodyParts(alt, plain, finalHTML); err != nil {
			return nil, err
		}
		alt.Close()
	} else {
		mixed := multipart.NewWriter(&buf)
		fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

		// The alternative pair is serialized into its own buffer first so
		// its boundary is known when the enclosing part header is written.
		var altBuf bytes.Buffer
		alt := multipart.NewWriter(&altBuf)
		if err := writeBodyParts(alt, plain, finalHTML); err != nil {
			return nil, err
		}
		alt.Close()

		altHeader := make(textproto.MIMEHeader)
		altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary()))
		part, err := mixed.CreatePart(altHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to create body container: %w", err)
		}
		part.Write(altBuf.Bytes())

		for _, att := range in.Attachments {
			if err := b.writeAttachment(mixed, att); err != nil {
				return nil, err
			}
		}
		mixed.Close()
	}

	return &email.Message{
		Sender:     in.Sender,
		Subject:    in.Subject,
		Recipients: in.Recipients,
		Raw:        buf.Bytes(),
	}, nil
}

// writeBodyParts writes the plain-text and HTML alternatives, plain first.
func writeBodyParts(w *multipart.Writer, plain, html string) error {
	plainHeader := make(textproto.MIMEHeader)
	plainHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	part, err := w.CreatePart(plainHeader)
	if err != nil {
		return fmt.Errorf("failed to create plain part: %w", err)
	}
	part.Write([]byte(plain))

	htmlHeader := make(textproto.MIMEHeader)
	htmlHeader.Set("Content-Type", "text/html; charset=UTF-8")
	part, err = w.CreatePart(htmlHeader)
	if err != nil {
		return fmt.Errorf("failed to create html part: %w", err)
	}
	part.Write([]byte(html))

	return nil
}

// writeAttachment writes one attachment part. Text-typed attachments are
// embedded as UTF-8 with invalid sequences replaced, so malformed text never
// fails a build; everything else is base64-encoded.
func (b *Builder) writeAttachment(w *multipart.Writer, att email.Attachment) error {
	contentType := att.ContentType
	if contentType == "" {
		contentType = b.types.lookup(att.Filename)
	}

	mainType, _, _ := strings.Cut(contentType, "/")

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

	var body []byte
	if mainType == "text" {
		header.Set("Content-Type", contentType+"; charset=UTF-8")
		body = []byte(strings.ToValidUTF8(string(att.Content), "�"))
	} else {
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		body = []byte(encodeBase64WithLineBreaks(att.Content))
	}

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}
	part.Write(body)

	return nil
}

// encodeBase64WithLineBreaks encodes bytes to base64 with 76-character line
// breaks per RFC 2045.
func encodeBase64WithLineBreaks(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var lines []string
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		lines = append(lines, encoded[i:end])
	}
	return strings.Join(lines, "\r\n")
}

// wellKnownTypes maps common attachment extensions to their MIME types.
// mime.TypeByExtension consults OS tables that differ across hosts; these
// entries keep inference deterministic for the formats the allow-list admits.
var wellKnownTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".xml":  "text/xml",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// typeCache memoizes MIME type inference per lower-cased file extension.
// The inference is a pure function of the filename, so a lost race on first
// access is benign.
type typeCache struct {
	mu    sync.RWMutex
	types map[string]string
}

// lookup infers the MIME type for filename from its extension, defaulting
// to application/octet-stream when the extension is missing or unknown.
func (c *typeCache) lookup(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallbackContentType
	}

	c.mu.RLock()
	cached, ok := c.types[ext]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	contentType, ok := wellKnownTypes[ext]
	if !ok {
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = fallbackContentType
		} else if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mediaType
		}
	}

	c.mu.Lock()
	if c.types == nil {
		c.types = make(map[string]string)
	}
	c.types[ext] = contentType
	c.mu.Unlock()

	return contentType
}
