package yottapay

import (
	"crypto/hmac"
	"fmt"
)

// Verifier authenticates inbound result callbacks for one acquirer
// configuration.
type Verifier struct {
	PaymentKey string
}

// VerifySignature recomputes the callback signature and compares it with the
// supplied one. All seven payload fields must be present; the comparison is
// constant time.
func (v Verifier) VerifySignature(p CallbackPayload) error {
	if p.GatewayTransactionID == "" ||
		p.ShopTransactionID == "" ||
		p.MerchantID == "" ||
		p.CustomerID == "" ||
		p.Amount == "" ||
		p.Currency == "" ||
		p.ResponseCode == "" {
		return ErrMalformedCallback
	}
	expected := signature(
		p.GatewayTransactionID,
		p.ShopTransactionID,
		p.MerchantID,
		p.CustomerID,
		p.Amount,
		p.Currency,
		p.ResponseCode,
		v.PaymentKey,
	)
	if !hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return fmt.Errorf("%w for reference %s", ErrSignatureMismatch, p.ShopTransactionID)
	}
	return nil
}

// Outcome is the terminal disposition a response code maps to.
type Outcome struct {
	Success bool
	// Status is one of "done", "canceled", "error".
	Status string
	// Message is the human-readable note attached to non-success outcomes.
	Message string
}

// OutcomeFor maps a gateway response code onto a transaction disposition:
// "0" is success, "2" a shopper cancellation, anything else a failure.
func OutcomeFor(code string) Outcome {
	switch code {
	case "0":
		return Outcome{Success: true, Status: "done"}
	case "2":
		return Outcome{Status: "canceled", Message: "Payment was canceled."}
	default:
		return Outcome{Status: "error", Message: "Payment was failed."}
	}
}

// Expected holds the transaction-side values a callback is checked against.
type Expected struct {
	Amount        string
	Currency      string
	CustomerEmail string
}

// Discrepancy records one payload field that disagrees with the stored
// transaction.
type Discrepancy struct {
	Field string
	Got   string
	Want  string
}

// DetectMismatch compares the tamper-sensitive callback fields against the
// expected transaction values and reports every disagreement. Callers decide
// whether discrepancies block the state transition.
func DetectMismatch(p CallbackPayload, want Expected) []Discrepancy {
	var out []Discrepancy
	if p.Amount != want.Amount {
		out = append(out, Discrepancy{Field: "amount", Got: p.Amount, Want: want.Amount})
	}
	if p.Currency != want.Currency {
		out = append(out, Discrepancy{Field: "currency", Got: p.Currency, Want: want.Currency})
	}
	if p.CustomerID != want.CustomerEmail {
		out = append(out, Discrepancy{Field: "customer_identifier", Got: p.CustomerID, Want: want.CustomerEmail})
	}
	return out
}
