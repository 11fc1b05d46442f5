package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{
		"a@b.co",
		"user@example.com",
		"first.last@example.com",
		"user+tag@example.co.uk",
		"x_y-z@sub.domain-name.org",
		"UPPER@EXAMPLE.COM",
	}
	for _, addr := range valid {
		if !IsValidEmail(addr) {
			t.Errorf("IsValidEmail(%q): got false, want true", addr)
		}
	}

	invalid := []string{
		"",
		"a",
		"ab",
		"no-at-sign.com",
		"two@@example.com",
		"a@b@c.com",
		"@example.com",
		"user@",
		"user@ab",
		"user@-example.com",
		"user@example-.com",
		"user@example",
		"user with spaces@example.com",
		strings.Repeat("a", 65) + "@example.com",
		"a@" + strings.Repeat("b", 250) + ".com",
	}
	for _, addr := range invalid {
		if IsValidEmail(addr) {
			t.Errorf("IsValidEmail(%q): got true, want false", addr)
		}
	}
}

func TestIsValidEmail_Idempotent(t *testing.T) {
	t.Parallel()

	// Any address accepted by the parser validates again on its own.
	input := "a@b.com; c@d.org\n e@f.net"
	valid, err := ParseEmailInput(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, addr := range valid {
		if !IsValidEmail(addr) {
			t.Errorf("parsed address %q failed re-validation", addr)
		}
	}
}

func TestIsGmailAddress(t *testing.T) {
	t.Parallel()

	if !IsGmailAddress("user@gmail.com") {
		t.Error("user@gmail.com: got false, want true")
	}
	if !IsGmailAddress("user@GoogleMail.com") {
		t.Error("user@GoogleMail.com: got false, want true")
	}
	if IsGmailAddress("user@example.com") {
		t.Error("user@example.com: got true, want false")
	}
	if IsGmailAddress("not-an-address@gmail") {
		t.Error("not-an-address@gmail: got true, want false")
	}
}

func TestSanitizeEmailInput(t *testing.T) {
	t.Parallel()

	got := SanitizeEmailInput("a@b.com;c@d.org\ne@f.net\t g@h.io,, ")
	want := "a@b.com, c@d.org, e@f.net, g@h.io"
	if got != want {
		t.Errorf("SanitizeEmailInput: got %q, want %q", got, want)
	}
}

func TestSanitizeEmailInput_Idempotent(t *testing.T) {
	t.Parallel()

	input := "a@b.com; c@d.org\nbad entry\t,x@y.z"
	once := SanitizeEmailInput(input)
	twice := SanitizeEmailInput(once)
	if once != twice {
		t.Errorf("not idempotent: once %q, twice %q", once, twice)
	}
}

func TestParseEmailInput(t *testing.T) {
	t.Parallel()

	valid, err := ParseEmailInput("a@b.com, bad, c@d.org")
	if len(valid) != 2 || valid[0] != "a@b.com" || valid[1] != "c@d.org" {
		t.Errorf("valid: got %v, want [a@b.com c@d.org]", valid)
	}
	if err == nil {
		t.Fatal("expected error for invalid entry")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error %q does not mention the invalid entry", err)
	}

	var invalidErr *InvalidAddressesError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("error type: got %T, want *InvalidAddressesError", err)
	}
	if len(invalidErr.Addresses) != 1 || invalidErr.Addresses[0] != "bad" {
		t.Errorf("invalid addresses: got %v, want [bad]", invalidErr.Addresses)
	}
}

func TestParseEmailInput_AllValid(t *testing.T) {
	t.Parallel()

	valid, err := ParseEmailInput("a@b.com;c@d.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 2 {
		t.Errorf("valid: got %v, want 2 entries", valid)
	}
}

func TestParseEmailInput_Empty(t *testing.T) {
	t.Parallel()

	valid, err := ParseEmailInput("   \n\t ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 0 {
		t.Errorf("valid: got %v, want empty", valid)
	}
}

func TestValidateAttachmentSize(t *testing.T) {
	t.Parallel()

	if err := ValidateAttachmentSize(25 * 1024 * 1024); err != nil {
		t.Errorf("25MB: unexpected error: %v", err)
	}

	err := ValidateAttachmentSize(26 * 1024 * 1024)
	if err == nil {
		t.Fatal("26MB: expected error")
	}
	if !strings.Contains(err.Error(), "26.0MB") {
		t.Errorf("error %q does not cite the actual size", err)
	}
	if !strings.Contains(err.Error(), "25MB") {
		t.Errorf("error %q does not cite the limit", err)
	}
}

func TestValidateAttachmentType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"report.pdf", "photo.JPG", "archive.tar", "data.csv", "script.py"} {
		if err := ValidateAttachmentType(name); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
	}

	if err := ValidateAttachmentType("payload.exe"); err == nil {
		t.Error("payload.exe: expected type rejection")
	}
	err := ValidateAttachmentType("notes")
	if err == nil {
		t.Fatal("notes: expected rejection for missing extension")
	}
	if !strings.Contains(err.Error(), "no extension") {
		t.Errorf("error %q does not mention the missing extension", err)
	}
}

func TestValidateTotalAttachmentSize(t *testing.T) {
	t.Parallel()

	if err := ValidateTotalAttachmentSize([]int64{10 << 20, 10 << 20}); err != nil {
		t.Errorf("20MB total: unexpected error: %v", err)
	}

	// Each file passes the per-file check but the batch exceeds the limit.
	err := ValidateTotalAttachmentSize([]int64{15 << 20, 15 << 20})
	if err == nil {
		t.Fatal("30MB total: expected error")
	}
	if !strings.Contains(err.Error(), "30.0MB") {
		t.Errorf("error %q does not cite the total size", err)
	}
}
