package yottapay

import "errors"

// Error kinds surfaced by the gateway integration. Handlers translate these
// into user-facing responses; the raw payment key must never travel with them.
var (
	// ErrUnsupportedCurrency rejects any intent that is not denominated in GBP.
	ErrUnsupportedCurrency = errors.New("yottapay: only GBP is supported")
	// ErrProtocolViolation marks a gateway response missing required fields.
	ErrProtocolViolation = errors.New("yottapay: missing required fields in gateway response")
	// ErrMalformedCallback marks a result callback missing required fields.
	ErrMalformedCallback = errors.New("yottapay: missing required fields in callback")
	// ErrSignatureMismatch marks a callback whose signature does not verify.
	ErrSignatureMismatch = errors.New("yottapay: signature verification failed")
	// ErrTransport wraps network failures and non-200 gateway responses.
	ErrTransport = errors.New("yottapay: gateway request failed")
)
