package utils

import (
	"bytes"
	"net/http/httptest"
	"testing"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"10MB", 10 << 20, true},
		{"15 mb", 15 << 20, true},
		{"512KB", 512 << 10, true},
		{"2048", 2048, true},
		{"", 0, false},
		{"ten", 0, false},
		{"5XB", 0, false},
		{"0MB", 0, false},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		if c.ok && err != nil {
			t.Errorf("ParseSize(%q) unexpected error: %v", c.in, err)
			continue
		}
		if !c.ok && err == nil {
			t.Errorf("ParseSize(%q) expected error", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}

	if got := SizeToBytes("bogus", 42); got != 42 {
		t.Errorf("SizeToBytes fallback = %d, want 42", got)
	}
}

func TestMatchOrigin(t *testing.T) {
	cases := []struct {
		origin, pattern string
		want            bool
	}{
		{"https://example.com", "*", true},
		{"https://example.com", "https://example.com", true},
		{"https://api.example.com", "https://**.example.com", true},
		{"https://example.com", "https://**.example.com", true},
		{"https://evil.com", "https://**.example.com", false},
		{"https://api.example.com", "https://*.example.com", true},
		{"https://example.com", "https://*.example.com", false},
		{"https://a/b.example.com", "https://*.example.com", false},
	}
	for _, c := range cases {
		if got := MatchOrigin(c.origin, c.pattern); got != c.want {
			t.Errorf("MatchOrigin(%q, %q) = %v, want %v", c.origin, c.pattern, got, c.want)
		}
	}

	if !IsAllowedOrigin("https://shop.example.com/contact", []string{"https://*.example.com"}) {
		t.Error("expected referer-style origin to be cleaned and allowed")
	}
	if IsAllowedOrigin("", []string{"*"}) {
		t.Error("empty origin must never be allowed")
	}
}

func TestIsValidPublicID(t *testing.T) {
	valid := []string{"site/gallery/abc123", "door-01_v2", "a@b.c"}
	invalid := []string{"", "/lead", "trail/", "a//b", "../etc/passwd", "has space", "semi;colon"}
	for _, id := range valid {
		if !IsValidPublicID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if IsValidPublicID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestSecureCompare(t *testing.T) {
	if SecureCompare("anything", "") {
		t.Error("empty expected secret must never match")
	}
	if !SecureCompare("s3cret", "s3cret") {
		t.Error("equal secrets must match")
	}
	if SecureCompare("s3cret ", "s3cret") {
		t.Error("different secrets must not match")
	}
}

func TestTruncateAndSplitList(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 200); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	got := SplitList(" oak, door ,, oak ,hinge")
	if len(got) != 3 || got[0] != "oak" || got[1] != "door" || got[2] != "hinge" {
		t.Errorf("SplitList = %v", got)
	}
}

func TestSniffImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ct, ok := SniffImage(bytes.NewReader(png))
	if !ok || ct != "image/png" {
		t.Errorf("SniffImage(png) = %q, %v", ct, ok)
	}

	heic := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")
	if ct, ok := SniffImage(bytes.NewReader(heic)); !ok || ct != "image/heic" {
		t.Errorf("SniffImage(heic) = %q, %v", ct, ok)
	}

	_, ok = SniffImage(bytes.NewReader([]byte("hello, plain text")))
	if ok {
		t.Error("plain text must not be accepted as an image")
	}
}

func TestGetRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := GetRealIP(r); got != "10.0.0.1" {
		t.Errorf("GetRealIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := GetRealIP(r); got != "203.0.113.5" {
		t.Errorf("GetRealIP with XFF = %q", got)
	}
}
