package plist

import (
	"strconv"
	"strings"
)

// unsignedGetBase strips a 0x prefix and reports the base of the remaining digits.
func unsignedGetBase(s string) (string, int) {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], 16
	}
	return s, 10
}

// parseInteger reads a decimal or 0x-prefixed integer with an optional sign.
// Negative values come back signed; everything else unsigned.
func parseInteger(s string) (*cfNumber, error) {
	if strings.HasPrefix(s, "-") {
		digits, base := unsignedGetBase(s[1:])
		n, err := strconv.ParseInt("-"+digits, base, 64)
		if err != nil {
			return nil, err
		}
		return newSignedInteger(n), nil
	}
	digits, base := unsignedGetBase(strings.TrimPrefix(s, "+"))
	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, err
	}
	return newUnsignedInteger(n), nil
}

func parseReal(s string) (*cfReal, error) {
	switch strings.ToLower(s) {
	case "inf", "+inf", "infinity", "+infinity":
		s = "+Inf"
	case "-inf", "-infinity":
		s = "-Inf"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &cfReal{value: f}, nil
}
