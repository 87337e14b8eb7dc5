package yottapay

// Field names below follow the gateway wire format and must not be renamed.

// PaymentIntentRequest is the signed body POSTed to the gateway to open a
// hosted checkout session.
type PaymentIntentRequest struct {
	Type                   string `json:"type"`
	ShopTransactionID      string `json:"shop_transaction_identifier"`
	MerchantID             string `json:"merchant_identifier"`
	CustomerID             string `json:"customer_identifier"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	URLPaymentResult       string `json:"url_payment_result"`
	URLMerchantPageSuccess string `json:"url_merchant_page_success"`
	URLMerchantPageCancel  string `json:"url_merchant_page_cancel"`
	NotificationID         string `json:"yotta_notification_id"`
	Signature              string `json:"signature"`
}

// PaymentIntentResponse is the gateway's answer to a creation request. Both
// fields are mandatory; an answer missing either is a protocol violation.
type PaymentIntentResponse struct {
	URLProcessPaymentIntent string `json:"url_process_payment_intent"`
	GatewayTransactionID    string `json:"yottapay_transaction_identifier"`
}

// CallbackPayload is the signed result the gateway delivers once the shopper
// finishes (or abandons) the hosted checkout.
type CallbackPayload struct {
	GatewayTransactionID string `json:"yottapay_transaction_identifier" validate:"required"`
	ShopTransactionID    string `json:"shop_transaction_identifier" validate:"required"`
	MerchantID           string `json:"merchant_identifier" validate:"required"`
	CustomerID           string `json:"customer_identifier" validate:"required"`
	Amount               string `json:"amount" validate:"required"`
	Currency             string `json:"currency" validate:"required"`
	ResponseCode         string `json:"response_code" validate:"required"`
	Signature            string `json:"signature"`
}

// IntentValues carries the merchant-side inputs for one payment attempt.
// AmountPence is the charge amount in integer pence; the wire form is always
// the two-decimal string produced by FormatAmount.
type IntentValues struct {
	Reference      string
	AmountPence    int64
	Currency       string
	CustomerEmail  string
	NotificationID string
}
