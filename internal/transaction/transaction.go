package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one payment attempt. A transaction starts
// pending and moves exactly once into one of the three terminal states.
type Status string

const (
	StatusPending  Status = "pending"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
	StatusError    Status = "error"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCanceled || s == StatusError
}

// ParseStatus validates a status string coming from outside the package.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusDone, StatusCanceled, StatusError:
		return Status(value), nil
	}
	return "", fmt.Errorf("transaction: unknown status %q", value)
}

var (
	// ErrNotFound means no transaction matches the reference.
	ErrNotFound = errors.New("transaction: not found")
	// ErrAmbiguousReference means more than one transaction matches a
	// reference that must be unique. Treated as an integrity violation.
	ErrAmbiguousReference = errors.New("transaction: reference matches more than one transaction")
	// ErrDuplicateReference means an insert collided with an existing reference.
	ErrDuplicateReference = errors.New("transaction: reference already exists")
	// ErrAlreadyFinalized means a transition was attempted on a transaction
	// that already reached a terminal state.
	ErrAlreadyFinalized = errors.New("transaction: already finalized")
)

// Transaction is the acquirer-side record of one payment attempt.
type Transaction struct {
	ID           uuid.UUID
	Reference    string
	AmountPence  int64
	Currency     string
	PartnerEmail string
	GatewayID    string
	Status       Status
	StateMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
