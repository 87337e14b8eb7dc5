package payment_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/noah-isme/yottapay-acquirer/internal/notify"
	"github.com/noah-isme/yottapay-acquirer/internal/transaction"
	"github.com/noah-isme/yottapay-acquirer/internal/yottapay"
)

type mockStore struct {
	mu        sync.Mutex
	txs       map[string]transaction.Transaction
	ambiguous map[string]bool
	createErr error
}

func newMockStore() *mockStore {
	return &mockStore{txs: map[string]transaction.Transaction{}, ambiguous: map[string]bool{}}
}

func (m *mockStore) add(t transaction.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[t.Reference] = t
}

func (m *mockStore) Create(_ context.Context, t *transaction.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.txs[t.Reference]; exists {
		return fmt.Errorf("%w: %s", transaction.ErrDuplicateReference, t.Reference)
	}
	if t.Status == "" {
		t.Status = transaction.StatusPending
	}
	m.txs[t.Reference] = *t
	return nil
}

func (m *mockStore) FindByReference(_ context.Context, reference string) (transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ambiguous[reference] {
		return transaction.Transaction{}, fmt.Errorf("%w: %s", transaction.ErrAmbiguousReference, reference)
	}
	tx, ok := m.txs[reference]
	if !ok {
		return transaction.Transaction{}, fmt.Errorf("%w: %s", transaction.ErrNotFound, reference)
	}
	return tx, nil
}

func (m *mockStore) SetGatewayID(_ context.Context, reference, gatewayID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[reference]
	if !ok {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, reference)
	}
	tx.GatewayID = gatewayID
	m.txs[reference] = tx
	return nil
}

func (m *mockStore) Finalize(_ context.Context, reference string, to transaction.Status, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[reference]
	if !ok {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, reference)
	}
	if tx.Status != transaction.StatusPending {
		return fmt.Errorf("%w: %s is %s", transaction.ErrAlreadyFinalized, reference, tx.Status)
	}
	tx.Status = to
	tx.StateMessage = message
	m.txs[reference] = tx
	return nil
}

func (m *mockStore) status(reference string) transaction.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs[reference].Status
}

type fakeGateway struct {
	signer yottapay.Signer
	resp   yottapay.PaymentIntentResponse
	err    error
	calls  int
}

func (g *fakeGateway) CreateIntent(_ context.Context, v yottapay.IntentValues) (yottapay.PaymentIntentResponse, error) {
	// Mirror the real client: signing runs (and validates currency) before
	// any network activity.
	if _, err := g.signer.BuildRequest(v); err != nil {
		return yottapay.PaymentIntentResponse{}, err
	}
	g.calls++
	if g.err != nil {
		return yottapay.PaymentIntentResponse{}, g.err
	}
	return g.resp, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []notify.Result
}

func (n *recordingNotifier) NotifyResult(_ context.Context, res notify.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, res)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

func digest(parts ...string) string {
	joined := ""
	for _, p := range parts {
		joined += p
	}
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

func signedCallback(key string, mutate func(*yottapay.CallbackPayload)) yottapay.CallbackPayload {
	p := yottapay.CallbackPayload{
		GatewayTransactionID: "YP-555",
		ShopTransactionID:    "ORD-100",
		MerchantID:           "M1",
		CustomerID:           "buyer@example.com",
		Amount:               "19.99",
		Currency:             "GBP",
		ResponseCode:         "0",
	}
	if mutate != nil {
		mutate(&p)
	}
	p.Signature = digest(p.GatewayTransactionID, p.ShopTransactionID, p.MerchantID,
		p.CustomerID, p.Amount, p.Currency, p.ResponseCode, key)
	return p
}

func pendingTransaction() transaction.Transaction {
	return transaction.Transaction{
		Reference:    "ORD-100",
		AmountPence:  1999,
		Currency:     "GBP",
		PartnerEmail: "buyer@example.com",
		Status:       transaction.StatusPending,
	}
}
