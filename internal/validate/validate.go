// Package validate provides syntax validation for email addresses and
// pre-flight checks for attachments. All checks are pure and local; no DNS
// or network lookups are ever performed.
package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// emailPattern is a simplified RFC 5322 address grammar: atom characters in
// the local part, dot-separated letter/digit/hyphen labels in the domain,
// no leading or trailing hyphen per label.
var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@` +
		`[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
		`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// IsValidEmail reports whether addr is a syntactically valid address:
// exactly one "@", total length in [3,254], local part length in [1,64],
// domain length at least 3, and a match of the simplified grammar.
func IsValidEmail(addr string) bool {
	addr = strings.TrimSpace(addr)

	if len(addr) < 3 || len(addr) > 254 {
		return false
	}
	if strings.Count(addr, "@") != 1 {
		return false
	}

	at := strings.LastIndex(addr, "@")
	local, domain := addr[:at], addr[at+1:]

	if len(local) < 1 || len(local) > 64 {
		return false
	}
	if len(domain) < 3 {
		return false
	}

	return emailPattern.MatchString(addr)
}

// IsGmailAddress reports whether addr is a valid address on a Google mail
// domain.
func IsGmailAddress(addr string) bool {
	if !IsValidEmail(addr) {
		return false
	}
	lower := strings.ToLower(addr)
	return strings.HasSuffix(lower, "@gmail.com") || strings.HasSuffix(lower, "@googlemail.com")
}

// SanitizeEmailInput normalizes a raw recipient string: semicolons, newlines
// and tabs become commas, pieces are trimmed, empty pieces are dropped, and
// the result is re-joined with ", ". The operation is idempotent.
func SanitizeEmailInput(input string) string {
	normalized := strings.NewReplacer(";", ",", "\n", ",", "\t", ",").Replace(input)

	var parts []string
	for _, p := range strings.Split(normalized, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// InvalidAddressesError lists the entries of a recipient string that failed
// validation. It is advisory: the valid subset is still returned alongside
// it, and the caller decides whether to proceed.
type InvalidAddressesError struct {
	Addresses []string
}

func (e *InvalidAddressesError) Error() string {
	return fmt.Sprintf("invalid email(s): %s", strings.Join(e.Addresses, ", "))
}

// ParseEmailInput sanitizes and splits a raw recipient string and validates
// each entry. It returns the valid addresses and, when any entry failed, an
// *InvalidAddressesError describing all failures.
func ParseEmailInput(input string) ([]string, error) {
	var valid, invalid []string

	for _, addr := range strings.Split(SanitizeEmailInput(input), ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if IsValidEmail(addr) {
			valid = append(valid, addr)
		} else {
			invalid = append(invalid, addr)
		}
	}

	if len(invalid) > 0 {
		return valid, &InvalidAddressesError{Addresses: invalid}
	}
	return valid, nil
}

// MaxAttachmentSize is the per-file and aggregate attachment size limit.
const MaxAttachmentSize = 25 * 1024 * 1024

// allowedExtensions is the closed set of attachment file extensions accepted
// by ValidateAttachmentType. Additions require a code change.
var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".txt": {}, ".rtf": {}, ".csv": {}, ".odt": {}, ".ods": {}, ".odp": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {}, ".svg": {},
	".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {},
	".json": {}, ".xml": {}, ".html": {}, ".css": {}, ".js": {}, ".py": {},
}

// ValidateAttachmentSize checks a single file's byte length against
// MaxAttachmentSize. The returned error reports the actual size in MB to
// one decimal place.
func ValidateAttachmentSize(size int64) error {
	if size > MaxAttachmentSize {
		sizeMB := float64(size) / (1024 * 1024)
		return fmt.Errorf("file size (%.1fMB) exceeds limit (%dMB)", sizeMB, MaxAttachmentSize/(1024*1024))
	}
	return nil
}

// ValidateAttachmentType checks the filename's extension against the
// allow-list. Files without an extension are rejected. No content sniffing
// is performed.
func ValidateAttachmentType(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file has no extension")
	}
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("file type %q not allowed", ext)
	}
	return nil
}

// ValidateTotalAttachmentSize checks the summed size of a whole attachment
// batch against MaxAttachmentSize. This is a distinct, coarser guard than
// the per-file check; both are mandatory.
func ValidateTotalAttachmentSize(sizes []int64) error {
	var total int64
	for _, s := range sizes {
		total += s
	}
	if total > MaxAttachmentSize {
		totalMB := float64(total) / (1024 * 1024)
		return fmt.Errorf("total attachment size (%.1fMB) exceeds limit (%dMB)", totalMB, MaxAttachmentSize/(1024*1024))
	}
	return nil
}
