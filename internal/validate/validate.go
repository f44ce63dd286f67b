package validate

import (
	"fmt"
	"regexp"
)

// Text field length limits — single source of truth for backend and frontend.
const (
	MaxTitleLength          = 500
	MaxDescriptionLength    = 5000
	MaxCustomURLLength      = 100
	MaxAdNameLength         = 200
	MaxAdCodeLength         = 64 * 1024
	MaxAccessCodeLength     = 64
	MaxButtonTextLength     = 100
	MaxURLLength            = 2000
	MaxSEOTitleLength       = 200
	MaxSEODescriptionLength = 500
	MaxSEOKeywordsLength    = 500
)

var customURLPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Title(s string) string       { return checkLen(s, MaxTitleLength, "title") }
func Description(s string) string { return checkLen(s, MaxDescriptionLength, "description") }
func AdName(s string) string      { return checkLen(s, MaxAdNameLength, "ad name") }
func AdCode(s string) string      { return checkLen(s, MaxAdCodeLength, "ad code") }
func AccessCode(s string) string  { return checkLen(s, MaxAccessCodeLength, "access code") }
func ButtonText(s string) string  { return checkLen(s, MaxButtonTextLength, "button text") }
func URL(s string) string         { return checkLen(s, MaxURLLength, "URL") }
func SEOTitle(s string) string    { return checkLen(s, MaxSEOTitleLength, "SEO title") }
func SEODescription(s string) string {
	return checkLen(s, MaxSEODescriptionLength, "SEO description")
}
func SEOKeywords(s string) string { return checkLen(s, MaxSEOKeywordsLength, "SEO keywords") }

// CustomURL checks the vanity slug: lowercase alphanumerics and single
// hyphens, no leading or trailing hyphen.
func CustomURL(s string) string {
	if msg := checkLen(s, MaxCustomURLLength, "custom URL"); msg != "" {
		return msg
	}
	if !customURLPattern.MatchString(s) {
		return "custom URL may only contain lowercase letters, digits, and hyphens"
	}
	return ""
}

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"title":          MaxTitleLength,
		"description":    MaxDescriptionLength,
		"customUrl":      MaxCustomURLLength,
		"adName":         MaxAdNameLength,
		"adCode":         MaxAdCodeLength,
		"accessCode":     MaxAccessCodeLength,
		"buttonText":     MaxButtonTextLength,
		"url":            MaxURLLength,
		"seoTitle":       MaxSEOTitleLength,
		"seoDescription": MaxSEODescriptionLength,
		"seoKeywords":    MaxSEOKeywordsLength,
	}
}
