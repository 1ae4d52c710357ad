package model

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// CheckDisplayName records a problem if name is shorter than the minimum
// length once trimmed.
func (e *ValidationError) CheckDisplayName(field, name string) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinDisplayNameLength {
		e.Add(field, "must be at least 3 characters")
	}
}

// CheckEmail records a problem unless addr is a bare, well-formed address.
func (e *ValidationError) CheckEmail(field, addr string) {
	if addr == "" {
		e.Add(field, "is required")
		return
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || !strings.Contains(addr[strings.LastIndex(addr, "@")+1:], ".") {
		e.Add(field, "must be a valid email address")
	}
}

// CheckOptionalURL records a problem if raw is set but is not an absolute
// http(s) URL.
func (e *ValidationError) CheckOptionalURL(field, raw string) {
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		e.Add(field, "must be an absolute http or https URL")
	}
}

// CheckRequired records a problem if value is blank.
func (e *ValidationError) CheckRequired(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}
