package payment_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	validator "github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yottapay-acquirer/internal/payment"
	"github.com/noah-isme/yottapay-acquirer/internal/transaction"
	"github.com/noah-isme/yottapay-acquirer/internal/yottapay"
)

func postCallback(t *testing.T, wh payment.Webhook, payload yottapay.CallbackPayload) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, yottapay.PathPaymentResult, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	wh.Handle(rr, req)
	return rr
}

func testWebhook(store *mockStore, notifier *recordingNotifier) payment.Webhook {
	wh := payment.Webhook{
		Store:    store,
		Verifier: yottapay.Verifier{PaymentKey: "K1"},
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	}
	// Assign only a non-nil notifier so a nil *recordingNotifier does not
	// become a non-nil interface value.
	if notifier != nil {
		wh.Notifier = notifier
	}
	return wh
}

func TestWebhookAppliesSuccessCallback(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.add(pendingTransaction())
	notifier := &recordingNotifier{}
	wh := testWebhook(store, notifier)

	rr := postCallback(t, wh, signedCallback("K1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusDone, store.status("ORD-100"))
	require.Equal(t, 1, notifier.count())
	require.Equal(t, "done", notifier.results[0].Status)
	require.Equal(t, "19.99", notifier.results[0].Amount)
}

func TestWebhookAppliesCancellation(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.add(pendingTransaction())
	wh := testWebhook(store, nil)

	rr := postCallback(t, wh, signedCallback("K1", func(p *yottapay.CallbackPayload) {
		p.ResponseCode = "2"
	}))
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusCanceled, store.status("ORD-100"))
	require.Equal(t, "Payment was canceled.", store.txs["ORD-100"].StateMessage)
}

func TestWebhookAppliesFailureForUnknownCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"7", "abc"} {
		store := newMockStore()
		store.add(pendingTransaction())
		wh := testWebhook(store, nil)

		rr := postCallback(t, wh, signedCallback("K1", func(p *yottapay.CallbackPayload) {
			p.ResponseCode = code
		}))
		require.Equal(t, "OK", rr.Body.String())
		require.Equal(t, transaction.StatusError, store.status("ORD-100"), "code %q", code)
		require.Equal(t, "Payment was failed.", store.txs["ORD-100"].StateMessage)
	}
}

func TestWebhookRejectsBadSignatureButStillAcks(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.add(pendingTransaction())
	notifier := &recordingNotifier{}
	wh := testWebhook(store, notifier)

	payload := signedCallback("K1", nil)
	payload.Signature = digest("forged")
	rr := postCallback(t, wh, payload)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusPending, store.status("ORD-100"))
	require.Zero(t, notifier.count())
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.add(pendingTransaction())
	wh := testWebhook(store, nil)

	payload := signedCallback("K1", nil)
	payload.Amount = ""
	rr := postCallback(t, wh, payload)

	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusPending, store.status("ORD-100"))
}

func TestWebhookBlocksOnFieldMismatch(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.add(pendingTransaction())
	notifier := &recordingNotifier{}
	wh := testWebhook(store, notifier)

	// Signed with the right key but carrying a different amount than the
	// stored transaction: signature verifies, mismatch detection must block.
	rr := postCallback(t, wh, signedCallback("K1", func(p *yottapay.CallbackPayload) {
		p.Amount = "25.00"
	}))
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusPending, store.status("ORD-100"))
	require.Zero(t, notifier.count())
}

func TestWebhookIgnoresCallbackForFinalizedTransaction(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	tx := pendingTransaction()
	tx.Status = transaction.StatusDone
	store.add(tx)
	notifier := &recordingNotifier{}
	wh := testWebhook(store, notifier)

	rr := postCallback(t, wh, signedCallback("K1", func(p *yottapay.CallbackPayload) {
		p.ResponseCode = "2"
	}))
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusDone, store.status("ORD-100"))
	require.Zero(t, notifier.count())
}

func TestWebhookUnknownReference(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	wh := testWebhook(store, nil)

	rr := postCallback(t, wh, signedCallback("K1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "OK", rr.Body.String())
}

func TestWebhookAmbiguousReference(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.add(pendingTransaction())
	store.ambiguous["ORD-100"] = true
	wh := testWebhook(store, nil)

	rr := postCallback(t, wh, signedCallback("K1", nil))
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusPending, store.status("ORD-100"))
}

func TestWebhookReplayProtection(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMockStore()
	store.add(pendingTransaction())
	notifier := &recordingNotifier{}
	wh := testWebhook(store, notifier)
	wh.Replay = client
	wh.ReplayTTL = time.Minute

	payload := signedCallback("K1", nil)
	rr := postCallback(t, wh, payload)
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusDone, store.status("ORD-100"))
	require.Equal(t, 1, notifier.count())

	rr2 := postCallback(t, wh, payload)
	require.Equal(t, "OK", rr2.Body.String())
	require.Equal(t, 1, notifier.count(), "duplicate must not notify twice")
}

func TestWebhookProceedsWhenReplayStoreIsDown(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMockStore()
	store.add(pendingTransaction())
	notifier := &recordingNotifier{}
	wh := testWebhook(store, notifier)
	wh.Replay = client
	wh.ReplayTTL = time.Minute

	// With Redis unreachable the guard fails open: the gateway never
	// retries after an "OK", so the callback must still be applied.
	srv.Close()

	rr := postCallback(t, wh, signedCallback("K1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "OK", rr.Body.String())
	require.Equal(t, transaction.StatusDone, store.status("ORD-100"))
	require.Equal(t, 1, notifier.count())
}
