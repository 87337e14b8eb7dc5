package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskPaymentResult is the asynq task type queued after a transaction reaches
// a terminal state.
const TaskPaymentResult = "payment:result_notify"

// Result describes one finalized payment attempt for notification purposes.
type Result struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// NewResultTask encodes a Result into an asynq task.
func NewResultTask(res Result) (*asynq.Task, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result task: %w", err)
	}
	return asynq.NewTask(TaskPaymentResult, payload, asynq.MaxRetry(5)), nil
}

// Enqueuer hands finalized payment results to the task queue.
type Enqueuer struct {
	Client *asynq.Client
}

// NotifyResult enqueues a result notification. A nil client disables
// notifications without failing the callback flow.
func (e Enqueuer) NotifyResult(ctx context.Context, res Result) error {
	if e.Client == nil {
		return nil
	}
	task, err := NewResultTask(res)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue result task: %w", err)
	}
	return nil
}
