package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// ResourceIDRegex validates post/campaign/notification id format
	ResourceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateResourceID validates an entity id passed in a path or payload
func ValidateResourceID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("id is too long (max 100 characters)")
	}
	if !ResourceIDRegex.MatchString(id) {
		return fmt.Errorf("invalid id format")
	}
	return nil
}

// ValidatePostContent validates post body text
func ValidatePostContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(content) > 5000 {
		return fmt.Errorf("content is too long (max 5000 characters)")
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("content contains invalid characters")
	}
	return nil
}
