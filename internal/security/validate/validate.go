// Package validate holds the stateless input checks applied before anything
// caller-supplied reaches the document store, the vault or an outbound
// prompt. Every predicate is total: malformed input yields false, never a
// panic, so callers can use them directly in guard conditions.
package validate

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// Thai local (0xxxxxxxx) or +66 international, after stripping spaces
	// and hyphens.
	phoneRe = regexp.MustCompile(`^(\+66|0)[0-9]{8,9}$`)

	// Deliberately permissive: single @, dotted domain, no whitespace.
	// Real verification happens at the mail provider.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// data:<mime>;base64,<payload>
	dataURLRe = regexp.MustCompile(`^data:([a-zA-Z0-9]+/[a-zA-Z0-9-.+]+);base64,[a-zA-Z0-9+/=]+$`)

	filenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// DefaultMimeTypes is the vault upload allow-list.
var DefaultMimeTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/msword",
}

// IsValidPhone reports whether s is a Thai phone number. Whitespace and
// hyphens are ignored.
func IsValidPhone(s string) bool {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, s)
	return phoneRe.MatchString(stripped)
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsValidTextLength reports whether the character count of s lies in
// [min, max]. Counting runes, not bytes, matters for Thai input, where every
// character is three bytes of UTF-8.
func IsValidTextLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// IsValidURL accepts only absolute http and https URLs. Everything else,
// javascript: and data: included, is rejected.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeText escapes markup-significant characters so the result is inert
// as text content. Escaping is not idempotent: applying it twice
// double-escapes, so callers escape exactly once at the trust boundary.
func SanitizeText(s string) string {
	return html.EscapeString(s)
}

// IsValidBase64 reports whether s is a data URL with a base64 payload.
func IsValidBase64(s string) bool {
	return dataURLRe.MatchString(s)
}

// IsValidFileSize reports whether a byte count fits under maxMB megabytes.
func IsValidFileSize(bytes int64, maxMB int) bool {
	return bytes <= int64(maxMB)*1024*1024
}

// IsValidMimeType reports whether mime is on the allow list. A nil list
// means DefaultMimeTypes.
func IsValidMimeType(mime string, allowed []string) bool {
	if allowed == nil {
		allowed = DefaultMimeTypes
	}
	for _, a := range allowed {
		if mime == a {
			return true
		}
	}
	return false
}

// SanitizeFilename replaces every rune outside [A-Za-z0-9._-] with an
// underscore.
func SanitizeFilename(name string) string {
	return filenameRe.ReplaceAllString(name, "_")
}

// SanitizeObject returns a copy of obj with prototype-pollution key names
// dropped, string values escaped via SanitizeText and nested maps sanitized
// recursively. Arrays and non-string scalars pass through unchanged.
func SanitizeObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	cleaned := make(map[string]any, len(obj))
	for key, value := range obj {
		switch key {
		case "__proto__", "constructor", "prototype":
			continue
		}
		switch v := value.(type) {
		case string:
			cleaned[key] = SanitizeText(v)
		case map[string]any:
			cleaned[key] = SanitizeObject(v)
		default:
			cleaned[key] = value
		}
	}
	return cleaned
}

// LeadInput is the raw contact-form submission shape.
type LeadInput struct {
	Name     string
	Phone    string
	Email    string
	Details  string
	Category string
}

// IsValidLead checks a contact-form submission: non-empty name, Thai phone,
// plausible email and details up to 2000 characters.
func IsValidLead(in LeadInput) bool {
	return in.Name != "" &&
		IsValidPhone(in.Phone) &&
		IsValidEmail(in.Email) &&
		IsValidTextLength(in.Details, 0, 2000)
}

// strongPasswordSpecials is the accepted special-character set.
const strongPasswordSpecials = "@$!%*?&"

// IsStrongPassword requires at least 12 characters with one lowercase, one
// uppercase, one digit and one special character.
func IsStrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < 12 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(strongPasswordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}
