package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips control characters", "he\x00llo\x1b", "hello"},
		{"keeps tabs and newlines", "line1\nline2\ttab", "line1\nline2\ttab"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOptionalRef(t *testing.T) {
	if got := optionalRef(""); got != nil {
		t.Errorf("optionalRef(\"\") = %v, want nil", got)
	}
	if got := optionalRef("   "); got != nil {
		t.Errorf("optionalRef(whitespace) = %v, want nil", got)
	}
	if got := optionalRef(" abc "); got == nil || *got != "abc" {
		t.Errorf("optionalRef(\" abc \") = %v, want abc", got)
	}
}

func TestParseOptionalDate(t *testing.T) {
	if got := parseOptionalDate(""); got != nil {
		t.Errorf("empty date = %v, want nil", got)
	}
	if got := parseOptionalDate("not-a-date"); got != nil {
		t.Errorf("bad date = %v, want nil", got)
	}
	got := parseOptionalDate("2025-06-15")
	if got == nil {
		t.Fatal("valid date returned nil")
	}
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseOptionalDate = %v, want %v", got, want)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("title=Acme+deal&value=120.50"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.IsJSON() {
		t.Error("form body detected as JSON")
	}
	if got := p.Get("title"); got != "Acme deal" {
		t.Errorf("Get(title) = %q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Acme deal","value":120.5}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.IsJSON() {
		t.Error("JSON body not detected")
	}
	if got := p.Get("title"); got != "Acme deal" {
		t.Errorf("Get(title) = %q", got)
	}
	if got := p.Get("value"); got != "120.5" {
		t.Errorf("Get(value) = %q", got)
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if resp := RequirePOST(req); resp == nil {
		t.Error("expected error response for GET on POST-only route")
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	if resp := RequirePOST(req); resp != nil {
		t.Error("unexpected error response for POST")
	}

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	if resp := RequireDeleteOrPOST(req); resp != nil {
		t.Error("DELETE should be accepted on delete routes")
	}
}
