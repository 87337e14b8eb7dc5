package yottapay

import (
	"fmt"
	"strings"
)

// Fixed gateway endpoints. No others exist.
const (
	productionEndpoint = "https://prod.yottapay.co.uk/launcher/shop/paymentgateway/new"
	sandboxEndpoint    = "https://sandbox.yottapay.co.uk/launcher/shop/paymentgateway/new"
)

// Relative paths joined onto the merchant's public base URL. The result path
// receives the signed callback; the merchant page is where the shopper lands
// after success or cancellation.
const (
	PathCreateIntent  = "/payment/yottapay/create_payment_intent"
	PathPaymentResult = "/payment/yottapay/process_payment_result"
	PathMerchantPage  = "/payment/process"
)

// Signer builds signed payment-intent requests. It holds only static acquirer
// configuration and is safe for concurrent use.
type Signer struct {
	MerchantID string
	PaymentKey string
	Production bool
	// BaseURL is the public base URL of this service, used to derive the
	// callback and landing-page URLs that participate in the signature.
	BaseURL string
}

// Endpoint returns the gateway URL for the configured environment.
func (s Signer) Endpoint() string {
	if s.Production {
		return productionEndpoint
	}
	return sandboxEndpoint
}

// BuildRequest assembles and signs the request body for one payment attempt.
// The currency must be GBP; anything else fails before any signing happens.
func (s Signer) BuildRequest(v IntentValues) (PaymentIntentRequest, error) {
	// The trimmed forms are what get signed and sent; an untrimmed value
	// here would otherwise produce a payload the mismatch check rejects.
	currency := strings.TrimSpace(v.Currency)
	reference := strings.TrimSpace(v.Reference)
	if currency != "GBP" {
		return PaymentIntentRequest{}, fmt.Errorf("%w (got %q)", ErrUnsupportedCurrency, v.Currency)
	}
	if reference == "" {
		return PaymentIntentRequest{}, fmt.Errorf("yottapay: reference is required")
	}
	req := PaymentIntentRequest{
		Type:                   "creation",
		ShopTransactionID:      reference,
		MerchantID:             s.MerchantID,
		CustomerID:             v.CustomerEmail,
		Amount:                 FormatAmount(v.AmountPence),
		Currency:               currency,
		URLPaymentResult:       joinURL(s.BaseURL, PathPaymentResult),
		URLMerchantPageSuccess: joinURL(s.BaseURL, PathMerchantPage),
		URLMerchantPageCancel:  joinURL(s.BaseURL, PathMerchantPage),
		NotificationID:         v.NotificationID,
	}
	req.Signature = signature(
		req.ShopTransactionID,
		req.MerchantID,
		req.CustomerID,
		req.Amount,
		req.Currency,
		req.URLPaymentResult,
		req.URLMerchantPageSuccess,
		req.URLMerchantPageCancel,
		req.NotificationID,
		s.PaymentKey,
	)
	return req, nil
}

// ParseResponse checks that a decoded gateway answer carries both required
// fields before the redirect is handed to the shopper.
func ParseResponse(resp PaymentIntentResponse) (PaymentIntentResponse, error) {
	if strings.TrimSpace(resp.URLProcessPaymentIntent) == "" || strings.TrimSpace(resp.GatewayTransactionID) == "" {
		return PaymentIntentResponse{}, ErrProtocolViolation
	}
	return resp, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}
