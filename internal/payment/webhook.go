package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/yottapay-acquirer/internal/common"
	"github.com/noah-isme/yottapay-acquirer/internal/notify"
	"github.com/noah-isme/yottapay-acquirer/internal/obs"
	"github.com/noah-isme/yottapay-acquirer/internal/transaction"
	"github.com/noah-isme/yottapay-acquirer/internal/yottapay"
)

// callbackAck is the fixed acknowledgement returned to the gateway no matter
// how processing went. The gateway gets no granular error feedback; anything
// else would invite retry storms against a payload we already rejected.
const callbackAck = "OK"

// ReplayStore is the Redis subset used to reject duplicate callbacks.
type ReplayStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// ResultNotifier is told about every terminal transition.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, res notify.Result) error
}

// Webhook authenticates inbound result callbacks and applies the resulting
// state transition.
type Webhook struct {
	Store     TransactionStore
	Verifier  yottapay.Verifier
	Replay    ReplayStore
	ReplayTTL time.Duration
	Notifier  ResultNotifier
	Validate  *validator.Validate
	Logger    zerolog.Logger
}

// Handle processes one result callback. The response is always 200 with the
// fixed acknowledgement body; outcomes are visible only in logs, metrics and
// the transaction record.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	result := h.process(r)
	if obs.PaymentCallbackTotal != nil {
		obs.PaymentCallbackTotal.WithLabelValues(result).Inc()
	}
	common.PlainText(w, http.StatusOK, callbackAck)
}

func (h Webhook) process(r *http.Request) string {
	ctx, span := otel.Tracer("payment.Webhook").Start(r.Context(), "PaymentWebhook.Handle")
	defer span.End()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error().Err(err).Msg("callback body unreadable")
		return "malformed"
	}
	var payload yottapay.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.Logger.Error().Err(err).Msg("callback payload is not valid JSON")
		return "malformed"
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			h.Logger.Error().Err(err).Msg("callback payload missing required fields")
			return "malformed"
		}
	}
	span.SetAttributes(attribute.String("payment.reference", payload.ShopTransactionID))
	logger := h.Logger.With().Str("reference", payload.ShopTransactionID).Logger()

	if h.Replay != nil && h.ReplayTTL > 0 {
		key := "yp:cb:" + common.Sha256Hex(string(body))
		fresh, err := h.Replay.SetNX(ctx, key, "1", h.ReplayTTL).Result()
		if err != nil {
			// Fail open: the gateway never retries once it has seen "OK",
			// so dropping the callback here would lose it for good. The
			// terminal-state check and the compare-and-swap finalize keep
			// a duplicate harmless.
			logger.Error().Err(err).Msg("replay store unavailable, continuing without guard")
			fresh = true
		}
		if !fresh {
			logger.Warn().Msg("duplicate callback rejected")
			return "replay"
		}
	}

	tx, err := h.Store.FindByReference(ctx, payload.ShopTransactionID)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrAmbiguousReference):
			// Multiple rows for a unique reference is an integrity breach,
			// logged apart from ordinary validation noise.
			logger.Error().Err(err).Msg("callback_reference_ambiguous")
			return "ambiguous"
		case errors.Is(err, transaction.ErrNotFound):
			logger.Error().Err(err).Msg("callback for unknown reference")
			return "not_found"
		default:
			logger.Error().Err(err).Msg("transaction lookup failed")
			return "error"
		}
	}

	if err := h.Verifier.VerifySignature(payload); err != nil {
		if errors.Is(err, yottapay.ErrSignatureMismatch) {
			logger.Error().Err(err).Msg("callback_signature_mismatch")
			return "signature_mismatch"
		}
		logger.Error().Err(err).Msg("callback rejected before verification")
		return "malformed"
	}

	if tx.Status.Terminal() {
		logger.Warn().Str("status", string(tx.Status)).Msg("callback for finalized transaction ignored")
		return "already_finalized"
	}

	mismatches := yottapay.DetectMismatch(payload, yottapay.Expected{
		Amount:        yottapay.FormatAmount(tx.AmountPence),
		Currency:      tx.Currency,
		CustomerEmail: tx.PartnerEmail,
	})
	if len(mismatches) > 0 {
		// A verified signature with diverging fields means the values were
		// tampered with after signing or the transaction record drifted.
		// Either way the transition is blocked and the transaction stays
		// pending for manual review.
		for _, m := range mismatches {
			logger.Error().
				Str("field", m.Field).
				Str("got", m.Got).
				Str("want", m.Want).
				Msg("callback_field_mismatch")
		}
		return "mismatch"
	}

	outcome := yottapay.OutcomeFor(payload.ResponseCode)
	status, err := transaction.ParseStatus(outcome.Status)
	if err != nil {
		logger.Error().Err(err).Msg("unmapped outcome status")
		return "error"
	}
	if err := h.Store.Finalize(ctx, tx.Reference, status, outcome.Message); err != nil {
		if errors.Is(err, transaction.ErrAlreadyFinalized) {
			logger.Warn().Err(err).Msg("callback lost finalize race")
			return "already_finalized"
		}
		logger.Error().Err(err).Msg("finalize failed")
		return "error"
	}
	logger.Info().
		Str("response_code", payload.ResponseCode).
		Str("status", string(status)).
		Bool("success", outcome.Success).
		Msg("payment finalized")

	if h.Notifier != nil {
		res := notify.Result{
			Reference:     tx.Reference,
			Status:        string(status),
			Message:       outcome.Message,
			CustomerEmail: tx.PartnerEmail,
			Amount:        yottapay.FormatAmount(tx.AmountPence),
			Currency:      tx.Currency,
		}
		if err := h.Notifier.NotifyResult(ctx, res); err != nil {
			logger.Error().Err(err).Msg("result notification enqueue failed")
		}
	}
	return fmt.Sprintf("applied_%s", status)
}
