package password

import (
	"errors"
	"strings"
	"unicode"
)

const MinLength = 6

var (
	ErrTooShort    = errors.New("Password must be at least 6 characters")
	ErrNoUppercase = errors.New("Password must contain at least one uppercase letter")
	ErrNoLowercase = errors.New("Password must contain at least one lowercase letter")
	ErrNoDigit     = errors.New("Password must contain at least one number")
)

// CheckPolicy returns the first rule pw breaks, or nil.
//
// The case rules only reject strings that are entirely lower- or upper-case
// under case folding, so a password such as "123456A" with no lowercase
// letter fails while "Ab12345" passes. Digits and symbols are neither case.
func CheckPolicy(pw string) error {
	if len([]rune(pw)) < MinLength {
		return ErrTooShort
	}
	if strings.ToLower(pw) == pw {
		return ErrNoUppercase
	}
	if strings.ToUpper(pw) == pw {
		return ErrNoLowercase
	}
	if !strings.ContainsFunc(pw, unicode.IsDigit) {
		return ErrNoDigit
	}
	return nil
}
