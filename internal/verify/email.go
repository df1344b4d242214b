// Package verify checks that an address looks like a Google account.
//
// This is a format check only. It proves nothing about ownership of the
// mailbox; "authentication" in the storefront is domain-pattern matching.
package verify

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmailRequired  = errors.New("Email is required")
	ErrNotGoogleEmail = errors.New("Invalid email. Only Google email addresses (gmail.com or googlemail.com) are allowed.")
	ErrInvalidFormat  = errors.New("Invalid email format. Please enter a valid Google email address.")
)

var googleEmail = regexp.MustCompile(`^[a-zA-Z0-9._-]+@(gmail|googlemail)\.com$`)

// Normalize lower-cases and trims an address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GoogleEmail returns nil if email is a gmail.com or googlemail.com address.
// The error text is meant for display on the login form.
func GoogleEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	normalized := Normalize(email)
	_, domain, ok := strings.Cut(normalized, "@")
	if !ok || (domain != "gmail.com" && domain != "googlemail.com") {
		return ErrNotGoogleEmail
	}

	if !googleEmail.MatchString(normalized) {
		return ErrInvalidFormat
	}
	return nil
}

// LocalPart returns the text before '@', used as a default display name.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
