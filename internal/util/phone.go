package util

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned for numbers that are not 10-digit US numbers.
var ErrInvalidPhone = errors.New("invalid phone number format. Must be 10 digits or +1 followed by 10 digits")

var phoneCleaner = regexp.MustCompile(`[^\d+]`)

// NormalizePhone converts a US phone number in any common formatting to
// E.164 (+1XXXXXXXXXX).
func NormalizePhone(phone string) (string, error) {
	cleaned := phoneCleaner.ReplaceAllString(strings.TrimSpace(phone), "")

	var national string
	switch {
	case strings.HasPrefix(cleaned, "+1") && len(cleaned) == 12:
		national = cleaned[2:]
	case !strings.Contains(cleaned, "+") && len(cleaned) == 10:
		national = cleaned
	case !strings.Contains(cleaned, "+") && len(cleaned) == 11 && cleaned[0] == '1':
		national = cleaned[1:]
	default:
		return "", ErrInvalidPhone
	}

	if strings.Contains(national, "+") {
		return "", ErrInvalidPhone
	}
	// NANP area codes never start with 0 or 1.
	if national[0] == '0' || national[0] == '1' {
		return "", ErrInvalidPhone
	}
	return "+1" + national, nil
}
