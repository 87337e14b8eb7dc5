package yottapay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// pluginVersion is reported to the gateway on every request.
const pluginVersion = "1.0.0"

// Doer abstracts the outbound HTTP client so the gateway call can run through
// the shared resilient wrapper.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client opens payment intents against the Yotta Pay gateway.
type Client struct {
	Signer Signer
	HTTP   Doer
}

// CreateIntent builds the signed creation request, posts it to the gateway
// and validates the response shape. Transport failures and non-200 statuses
// surface as ErrTransport; a 200 missing either required field surfaces as
// ErrProtocolViolation.
func (c Client) CreateIntent(ctx context.Context, v IntentValues) (PaymentIntentResponse, error) {
	var zero PaymentIntentResponse
	body, err := c.Signer.BuildRequest(v)
	if err != nil {
		return zero, err
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("encode intent request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Signer.Endpoint(), bytes.NewReader(encoded))
	if err != nil {
		return zero, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Plugin-Version", pluginVersion)

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	var decoded PaymentIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	return ParseResponse(decoded)
}
