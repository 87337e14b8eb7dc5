package yottapay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// signature returns the lowercase-hex SHA-256 digest of the UTF-8
// concatenation of parts. The gateway authenticates both directions of the
// exchange with this construction, so the order of parts is load-bearing.
func signature(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// FormatAmount renders an amount in integer pence as the gateway's fixed
// two-decimal string form, e.g. 1999 -> "19.99". The exact string
// participates in signing on both sides of the exchange.
func FormatAmount(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s%d.%02d", sign, pence/100, pence%100)
}

// ParseAmount converts a decimal amount string with at most two fraction
// digits into integer pence. FormatAmount(ParseAmount(s)) reproduces a
// canonical two-decimal input unchanged.
func ParseAmount(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("parse amount: empty value")
	}
	negative := false
	if strings.HasPrefix(trimmed, "-") {
		negative = true
		trimmed = trimmed[1:]
	}
	whole := trimmed
	frac := ""
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		whole = trimmed[:idx]
		frac = trimmed[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("parse amount %q: more than two fraction digits", value)
	}
	// Both parts must be bare digits. ParseInt alone would accept a second
	// sign inside the number, e.g. "1.-1" or "--1".
	if !digitsOnly(whole) || (frac != "" && !digitsOnly(frac)) {
		return 0, fmt.Errorf("parse amount %q: not a decimal number", value)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	pence := units*100 + cents
	if negative {
		pence = -pence
	}
	return pence, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
