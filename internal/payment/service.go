package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/yottapay-acquirer/internal/common"
	"github.com/noah-isme/yottapay-acquirer/internal/obs"
	"github.com/noah-isme/yottapay-acquirer/internal/transaction"
	"github.com/noah-isme/yottapay-acquirer/internal/yottapay"
)

// ContactStoreOwnerMessage is the only detail the shopper-facing flow ever
// sees for gateway or configuration failures. Internal causes are logged,
// never returned, so the payment key cannot leak through an error message.
const ContactStoreOwnerMessage = "Please contact the store owner to solve the problem."

// TransactionStore is the persistence surface the payment flow needs.
type TransactionStore interface {
	Create(ctx context.Context, t *transaction.Transaction) error
	FindByReference(ctx context.Context, reference string) (transaction.Transaction, error)
	SetGatewayID(ctx context.Context, reference, gatewayID string) error
	Finalize(ctx context.Context, reference string, to transaction.Status, message string) error
}

// GatewayClient opens payment intents with the acquirer gateway.
type GatewayClient interface {
	CreateIntent(ctx context.Context, v yottapay.IntentValues) (yottapay.PaymentIntentResponse, error)
}

// Service coordinates transaction bookkeeping with the gateway exchange.
type Service struct {
	Store   TransactionStore
	Gateway GatewayClient
	Logger  zerolog.Logger
}

// IntentParams carries one payment attempt from the checkout flow.
type IntentParams struct {
	Reference      string
	AmountPence    int64
	Currency       string
	CustomerEmail  string
	NotificationID string
}

// CreateIntent records a pending transaction, asks the gateway for a hosted
// checkout session and returns the redirect URL for the shopper.
func (s *Service) CreateIntent(ctx context.Context, p IntentParams) (string, error) {
	if s == nil || s.Store == nil || s.Gateway == nil {
		return "", errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateIntent")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reference", p.Reference))

	result := "error"
	defer func() {
		span.SetAttributes(attribute.String("payment.intent.result", result))
		if obs.PaymentIntentTotal != nil {
			obs.PaymentIntentTotal.WithLabelValues(result).Inc()
		}
	}()

	tx := transaction.Transaction{
		Reference:    p.Reference,
		AmountPence:  p.AmountPence,
		Currency:     p.Currency,
		PartnerEmail: p.CustomerEmail,
		Status:       transaction.StatusPending,
	}
	if err := s.Store.Create(ctx, &tx); err != nil {
		return "", fmt.Errorf("create intent for %s: %w", p.Reference, err)
	}

	resp, err := s.Gateway.CreateIntent(ctx, yottapay.IntentValues{
		Reference:      p.Reference,
		AmountPence:    p.AmountPence,
		Currency:       p.Currency,
		CustomerEmail:  p.CustomerEmail,
		NotificationID: p.NotificationID,
	})
	if err != nil {
		span.RecordError(err)
		s.Logger.Error().Err(err).Str("reference", p.Reference).Msg("payment intent creation failed")
		if errors.Is(err, yottapay.ErrTransport) || errors.Is(err, yottapay.ErrProtocolViolation) {
			return "", common.NewAppError("INTENT_FAILED", ContactStoreOwnerMessage, http.StatusBadGateway, err)
		}
		return "", err
	}

	if err := s.Store.SetGatewayID(ctx, p.Reference, resp.GatewayTransactionID); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("record gateway id for %s: %w", p.Reference, err)
	}
	result = "success"
	s.Logger.Info().
		Str("reference", p.Reference).
		Str("gateway_transaction_id", resp.GatewayTransactionID).
		Msg("payment intent created")
	return resp.URLProcessPaymentIntent, nil
}
