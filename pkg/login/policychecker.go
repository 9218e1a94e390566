package login

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// PasswordPolicy defines the requirements for a new password
type PasswordPolicy struct {
	MinLength          int
	MaxLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
}

var (
	uppercase   = regexp.MustCompile(`[A-Z]`)
	lowercase   = regexp.MustCompile(`[a-z]`)
	digit       = regexp.MustCompile(`[0-9]`)
	specialChar = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// MaxBcryptBytes is the longest input bcrypt accepts.
const MaxBcryptBytes = 72

// DefaultPasswordPolicy accepts any password of at least 8 characters that
// fits bcrypt.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength: 8,
		MaxLength: MaxBcryptBytes,
	}
}

// Check returns the first requirement password fails, or nil.
func (p *PasswordPolicy) Check(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return fmt.Errorf("password must be at most %d bytes long", p.MaxLength)
	}
	if p.RequireUppercase && !uppercase.MatchString(password) {
		return errors.New("password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !lowercase.MatchString(password) {
		return errors.New("password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !digit.MatchString(password) {
		return errors.New("password must contain at least one digit")
	}
	if p.RequireSpecialChar && !specialChar.MatchString(password) {
		return errors.New("password must contain at least one special character")
	}
	return nil
}
