package validate

import (
	"strings"
	"testing"
)

func TestTitleWithinLimit(t *testing.T) {
	if msg := Title(strings.Repeat("a", MaxTitleLength)); msg != "" {
		t.Fatalf("expected no error, got %q", msg)
	}
}

func TestTitleOverLimit(t *testing.T) {
	msg := Title(strings.Repeat("a", MaxTitleLength+1))
	if msg == "" {
		t.Fatal("expected an error for an over-length title")
	}
	if !strings.Contains(msg, "title") {
		t.Fatalf("error should name the field: %q", msg)
	}
}

func TestCustomURL(t *testing.T) {
	cases := []struct {
		slug string
		ok   bool
	}{
		{"my-video", true},
		{"video2", true},
		{"a", true},
		{"My-Video", false},
		{"my_video", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"", false},
		{strings.Repeat("a", MaxCustomURLLength+1), false},
	}
	for _, tc := range cases {
		msg := CustomURL(tc.slug)
		if tc.ok && msg != "" {
			t.Errorf("CustomURL(%q) = %q, want valid", tc.slug, msg)
		}
		if !tc.ok && msg == "" {
			t.Errorf("CustomURL(%q) accepted, want rejection", tc.slug)
		}
	}
}

func TestFieldLimitsCoversValidators(t *testing.T) {
	limits := FieldLimits()
	for _, field := range []string{"title", "description", "customUrl", "adCode", "accessCode"} {
		if limits[field] <= 0 {
			t.Errorf("missing limit for %s", field)
		}
	}
}
