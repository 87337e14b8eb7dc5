package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/yottapay-acquirer/internal/obs"
)

// Worker consumes result notification tasks and delivers merchant emails.
type Worker struct {
	Mail      EmailSender
	Recipient string
	Logger    zerolog.Logger
}

// HandlePaymentResult processes one TaskPaymentResult task.
func (w Worker) HandlePaymentResult(_ context.Context, task *asynq.Task) error {
	var res Result
	if err := json.Unmarshal(task.Payload(), &res); err != nil {
		return fmt.Errorf("decode result task: %w", err)
	}
	to := w.Recipient
	if to == "" {
		to = res.CustomerEmail
	}
	if to == "" || w.Mail == nil {
		w.Logger.Debug().Str("reference", res.Reference).Msg("notification skipped")
		return nil
	}
	if err := w.Mail.Send(to, subjectFor(res.Status), bodyFor(res)); err != nil {
		if obs.NotificationTotal != nil {
			obs.NotificationTotal.WithLabelValues("error").Inc()
		}
		return fmt.Errorf("send result notification: %w", err)
	}
	if obs.NotificationTotal != nil {
		obs.NotificationTotal.WithLabelValues("sent").Inc()
	}
	w.Logger.Info().Str("reference", res.Reference).Str("status", res.Status).Msg("result notification sent")
	return nil
}
