package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store persists transactions in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// Create inserts a new pending transaction. The reference is protected by a
// unique index; a collision surfaces as ErrDuplicateReference.
func (s *Store) Create(ctx context.Context, t *Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payment_transactions
			(id, reference, amount_pence, currency, partner_email, gateway_transaction_id, status, state_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Reference, t.AmountPence, t.Currency, t.PartnerEmail, t.GatewayID, t.Status, t.StateMessage,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, t.Reference)
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// FindByReference returns the single transaction matching the reference.
// Zero matches fail with ErrNotFound. The unique index makes multiple matches
// impossible in practice, but the lookup still reports ErrAmbiguousReference
// if it ever observes more than one row.
func (s *Store) FindByReference(ctx context.Context, reference string) (Transaction, error) {
	var zero Transaction
	rows, err := s.Pool.Query(ctx, `
		SELECT id, reference, amount_pence, currency, partner_email,
		       gateway_transaction_id, status, state_message, created_at, updated_at
		FROM payment_transactions
		WHERE reference = $1`,
		reference,
	)
	if err != nil {
		return zero, fmt.Errorf("find transaction: %w", err)
	}
	matches, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Transaction])
	if err != nil {
		return zero, fmt.Errorf("find transaction: %w", err)
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%w: %s", ErrNotFound, reference)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%w: %s (%d rows)", ErrAmbiguousReference, reference, len(matches))
	}
}

// SetGatewayID records the gateway-assigned transaction identifier after a
// successful intent creation.
func (s *Store) SetGatewayID(ctx context.Context, reference, gatewayID string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE payment_transactions
		SET gateway_transaction_id = $2, updated_at = now()
		WHERE reference = $1`,
		reference, gatewayID,
	)
	if err != nil {
		return fmt.Errorf("set gateway id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return nil
}

// Finalize moves a pending transaction into a terminal state. The update is a
// compare-and-swap on status so a concurrent or replayed callback can never
// double-apply: once a terminal state is written it is never overwritten.
func (s *Store) Finalize(ctx context.Context, reference string, to Status, message string) error {
	if !to.Terminal() {
		return fmt.Errorf("finalize transaction: %q is not a terminal status", to)
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE payment_transactions
		SET status = $2, state_message = $3, updated_at = now()
		WHERE reference = $1 AND status = $4`,
		reference, to, message, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("finalize transaction: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	current, err := s.FindByReference(ctx, reference)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyFinalized, reference, current.Status)
	}
	return fmt.Errorf("finalize transaction: %s left in %s", reference, current.Status)
}
