package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPhone(t *testing.T) {
	cases := []struct {
		phone string
		want  bool
	}{
		{"0812345678", true},
		{"081-234-5678", true},
		{"081 234 5678", true},
		{"081\t234\t5678", true},
		{"081 234 5678", true},
		{"+66812345678", true},
		{"021234567", true},
		{"123", false},
		{"08123456789012", false},
		{"+15551234567", false},
		{"", false},
		{"โทร0812345678", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsValidPhone(tc.phone), "phone %q", tc.phone)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.com"))
	assert.True(t, IsValidEmail("somchai.p@thanathep.co.th"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("a@b"))
	assert.False(t, IsValidEmail("a b@c.com"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidTextLength(t *testing.T) {
	assert.True(t, IsValidTextLength("hello", 1, 10))
	assert.True(t, IsValidTextLength("", 0, 10))
	assert.False(t, IsValidTextLength("", 1, 10))
	assert.False(t, IsValidTextLength(strings.Repeat("x", 11), 1, 10))

	// Characters, not bytes: ten Thai characters are thirty UTF-8 bytes.
	assert.True(t, IsValidTextLength(strings.Repeat("ก", 10), 1, 10))
	assert.False(t, IsValidTextLength(strings.Repeat("ก", 11), 1, 10))
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://example.com"))
	assert.True(t, IsValidURL("http://example.com/path?q=1"))
	assert.False(t, IsValidURL("javascript:alert(1)"))
	assert.False(t, IsValidURL("data:text/html;base64,PHA+"))
	assert.False(t, IsValidURL("file:///etc/passwd"))
	assert.False(t, IsValidURL("ftp://example.com"))
	assert.False(t, IsValidURL("not a url"))
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText(`<script>alert("x")</script>`)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
}

func TestSanitizeTextIsNotIdempotent(t *testing.T) {
	// Escaping is a transform, not a filter: applying it twice
	// double-escapes. Callers escape exactly once at the trust boundary.
	once := SanitizeText("<b>")
	twice := SanitizeText(once)
	assert.NotEqual(t, once, twice)
	assert.Equal(t, "&amp;lt;b&amp;gt;", twice)
}

func TestIsValidBase64(t *testing.T) {
	assert.True(t, IsValidBase64("data:image/png;base64,iVBORw0KGgo="))
	assert.True(t, IsValidBase64("data:application/pdf;base64,JVBERi0x"))
	assert.False(t, IsValidBase64("iVBORw0KGgo="))
	assert.False(t, IsValidBase64("data:image/png,notbase64"))
	assert.False(t, IsValidBase64(""))
}

func TestIsValidFileSize(t *testing.T) {
	assert.True(t, IsValidFileSize(50*1024*1024, 50))
	assert.False(t, IsValidFileSize(50*1024*1024+1, 50))
	assert.True(t, IsValidFileSize(0, 1))
}

func TestIsValidMimeType(t *testing.T) {
	assert.True(t, IsValidMimeType("application/pdf", nil))
	assert.True(t, IsValidMimeType("image/webp", nil))
	assert.False(t, IsValidMimeType("application/x-sh", nil))
	assert.False(t, IsValidMimeType("text/html", nil))

	assert.True(t, IsValidMimeType("text/plain", []string{"text/plain"}))
	assert.False(t, IsValidMimeType("application/pdf", []string{"text/plain"}))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "contract_final_.pdf", SanitizeFilename("contract final!.pdf"))
	assert.Equal(t, "_________.doc", SanitizeFilename("สัญญาจ้าง.doc"))
}

func TestSanitizeObject(t *testing.T) {
	in := map[string]any{
		"name":      "<script>x</script>",
		"__proto__": map[string]any{"polluted": true},
		"nested": map[string]any{
			"note":        "<img onerror=1>",
			"constructor": "bad",
		},
		"tags":  []any{"<a>", "b"},
		"count": 3,
	}
	out := SanitizeObject(in)

	assert.NotContains(t, out, "__proto__")
	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", out["name"])

	nested, ok := out["nested"].(map[string]any)
	assert.True(t, ok)
	assert.NotContains(t, nested, "constructor")
	assert.Equal(t, "&lt;img onerror=1&gt;", nested["note"])

	// Arrays and non-string scalars pass through untouched.
	assert.Equal(t, []any{"<a>", "b"}, out["tags"])
	assert.Equal(t, 3, out["count"])

	// Input is not mutated.
	assert.Contains(t, in, "__proto__")
	assert.Equal(t, "<script>x</script>", in["name"])
}

func TestSanitizeObjectNil(t *testing.T) {
	assert.Nil(t, SanitizeObject(nil))
}

func TestIsValidLead(t *testing.T) {
	valid := LeadInput{
		Name:    "Somchai P.",
		Phone:   "0812345678",
		Email:   "somchai@example.com",
		Details: "ปรึกษาคดีแรงงาน",
	}
	assert.True(t, IsValidLead(valid))

	badPhone := valid
	badPhone.Phone = "123"
	assert.False(t, IsValidLead(badPhone))

	badEmail := valid
	badEmail.Email = "nope"
	assert.False(t, IsValidLead(badEmail))

	noName := valid
	noName.Name = ""
	assert.False(t, IsValidLead(noName))

	thaiDetails := valid
	thaiDetails.Details = strings.Repeat("ก", 700)
	assert.True(t, IsValidLead(thaiDetails))

	longDetails := valid
	longDetails.Details = strings.Repeat("x", 2001)
	assert.False(t, IsValidLead(longDetails))

	longThaiDetails := valid
	longThaiDetails.Details = strings.Repeat("ก", 2001)
	assert.False(t, IsValidLead(longThaiDetails))
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Str0ngPass!key"))
	assert.False(t, IsStrongPassword("short1A!"))
	assert.False(t, IsStrongPassword("alllowercase1!aa"))
	assert.False(t, IsStrongPassword("ALLUPPERCASE1!AA"))
	assert.False(t, IsStrongPassword("NoDigitsHere!!aa"))
	assert.False(t, IsStrongPassword("NoSpecials123abc"))
	assert.False(t, IsStrongPassword("Has Spaces 123!a"))
}
