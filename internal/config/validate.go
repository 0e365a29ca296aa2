package config

import (
	"fmt"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// validateChoice ensures value is one of choices
func validateChoice(key, value string, choices []string) error {
	for _, choice := range choices {
		if value == choice {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s '%s': supported values are %s", key, value, strings.Join(choices, ", "))
}

// validateMagic ensures the manifest magic is exactly four printable ASCII characters
func validateMagic(magic string) error {
	if len(magic) != 4 {
		return fmt.Errorf("magic must be 4 bytes, got %d", len(magic))
	}

	for _, char := range []byte(magic) {
		if char < 0x20 || char > 0x7e {
			return fmt.Errorf("invalid magic '%s': contains non-printable byte 0x%02x", magic, char)
		}
	}
	return nil
}
