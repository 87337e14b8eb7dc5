package yottapay_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yottapay-acquirer/internal/yottapay"
)

func signedCallback(key string) yottapay.CallbackPayload {
	p := yottapay.CallbackPayload{
		GatewayTransactionID: "YP-555",
		ShopTransactionID:    "ORD-100",
		MerchantID:           "M1",
		CustomerID:           "buyer@example.com",
		Amount:               "19.99",
		Currency:             "GBP",
		ResponseCode:         "0",
	}
	p.Signature = sha256Hex(p.GatewayTransactionID + p.ShopTransactionID + p.MerchantID +
		p.CustomerID + p.Amount + p.Currency + p.ResponseCode + key)
	return p
}

func TestVerifySignatureAcceptsCallbackOrder(t *testing.T) {
	t.Parallel()

	v := yottapay.Verifier{PaymentKey: "K1"}
	require.NoError(t, v.VerifySignature(signedCallback("K1")))
}

func TestVerifySignatureRejectsMissingFields(t *testing.T) {
	t.Parallel()

	v := yottapay.Verifier{PaymentKey: "K1"}
	clear := []struct {
		name   string
		mutate func(*yottapay.CallbackPayload)
	}{
		{"gateway id", func(p *yottapay.CallbackPayload) { p.GatewayTransactionID = "" }},
		{"reference", func(p *yottapay.CallbackPayload) { p.ShopTransactionID = "" }},
		{"merchant", func(p *yottapay.CallbackPayload) { p.MerchantID = "" }},
		{"customer", func(p *yottapay.CallbackPayload) { p.CustomerID = "" }},
		{"amount", func(p *yottapay.CallbackPayload) { p.Amount = "" }},
		{"currency", func(p *yottapay.CallbackPayload) { p.Currency = "" }},
		{"response code", func(p *yottapay.CallbackPayload) { p.ResponseCode = "" }},
	}
	for _, tc := range clear {
		t.Run(tc.name, func(t *testing.T) {
			p := signedCallback("K1")
			tc.mutate(&p)
			require.ErrorIs(t, v.VerifySignature(p), yottapay.ErrMalformedCallback)
		})
	}
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	t.Parallel()

	v := yottapay.Verifier{PaymentKey: "K1"}

	tamper := []func(*yottapay.CallbackPayload){
		func(p *yottapay.CallbackPayload) { p.Amount = "19.98" },
		func(p *yottapay.CallbackPayload) { p.ResponseCode = "2" },
		func(p *yottapay.CallbackPayload) { p.ShopTransactionID = "ORD-101" },
		func(p *yottapay.CallbackPayload) { p.Signature = sha256Hex("other") },
	}
	for _, mutate := range tamper {
		p := signedCallback("K1")
		mutate(&p)
		require.ErrorIs(t, v.VerifySignature(p), yottapay.ErrSignatureMismatch)
	}

	// A payload signed with a different key must not verify.
	require.ErrorIs(t, v.VerifySignature(signedCallback("K2")), yottapay.ErrSignatureMismatch)
}

func TestOutcomeForResponseCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code    string
		success bool
		status  string
		message string
	}{
		{"0", true, "done", ""},
		{"2", false, "canceled", "Payment was canceled."},
		{"7", false, "error", "Payment was failed."},
		{"", false, "error", "Payment was failed."},
		{"abc", false, "error", "Payment was failed."},
	}
	for _, tc := range cases {
		out := yottapay.OutcomeFor(tc.code)
		require.Equal(t, tc.success, out.Success, "code %q", tc.code)
		require.Equal(t, tc.status, out.Status, "code %q", tc.code)
		require.Equal(t, tc.message, out.Message, "code %q", tc.code)
	}
}

func TestDetectMismatch(t *testing.T) {
	t.Parallel()

	p := signedCallback("K1")
	want := yottapay.Expected{Amount: "19.99", Currency: "GBP", CustomerEmail: "buyer@example.com"}
	require.Empty(t, yottapay.DetectMismatch(p, want))

	p.Amount = "25.00"
	p.CustomerID = "intruder@example.com"
	found := yottapay.DetectMismatch(p, want)
	require.Len(t, found, 2)
	require.Equal(t, "amount", found[0].Field)
	require.Equal(t, "25.00", found[0].Got)
	require.Equal(t, "19.99", found[0].Want)
	require.Equal(t, "customer_identifier", found[1].Field)
}

func TestRequestAndCallbackUseDifferentFieldOrders(t *testing.T) {
	t.Parallel()

	// End to end: sign a request for ORD-100, then verify a callback carrying
	// the same merchant, key, reference and amount. The two digests differ
	// because the concatenation orders differ, yet both verify on their side.
	signer := yottapay.Signer{MerchantID: "M1", PaymentKey: "K1", BaseURL: "https://shop.example.com"}
	req, err := signer.BuildRequest(yottapay.IntentValues{
		Reference:     "ORD-100",
		AmountPence:   1999,
		Currency:      "GBP",
		CustomerEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	require.Len(t, req.Signature, 64)

	cb := signedCallback("K1")
	require.NotEqual(t, req.Signature, cb.Signature)
	require.NoError(t, yottapay.Verifier{PaymentKey: "K1"}.VerifySignature(cb))
}
