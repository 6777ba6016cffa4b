package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

// TypeDiscountPersist identifies the retry task for discount rows that failed
// to persist during evaluation.
const TypeDiscountPersist = "discount:persist"

// PersistPayload carries everything needed to retry the write.
type PersistPayload struct {
	EvaluationID string                  `json:"evaluationId"`
	CartID       int64                   `json:"cartId"`
	Discount     discount.VendorDiscount `json:"discount"`
}

// Enqueuer schedules persist retries on the task queue. It implements
// discount.PersistScheduler.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// SchedulePersist enqueues a persist retry for one vendor discount.
func (e Enqueuer) SchedulePersist(ctx context.Context, evaluationID string, cartID int64, d discount.VendorDiscount) error {
	if e.Client == nil {
		return fmt.Errorf("tasks: enqueuer not configured")
	}
	payload, err := json.Marshal(PersistPayload{EvaluationID: evaluationID, CartID: cartID, Discount: d})
	if err != nil {
		return fmt.Errorf("tasks: marshal persist payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	task := asynq.NewTask(TypeDiscountPersist, payload, opts...)
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("tasks: enqueue persist retry: %w", err)
	}
	return nil
}

// Upserter is the slice of the repository the persist handler needs.
type Upserter interface {
	UpsertVendorDiscount(ctx context.Context, cartID int64, d discount.VendorDiscount) error
}

// PersistHandler retries the discount write from the queue.
type PersistHandler struct {
	Repo   Upserter
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h PersistHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload PersistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// malformed payloads would never succeed on retry
		return fmt.Errorf("tasks: decode persist payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.Repo.UpsertVendorDiscount(ctx, payload.CartID, payload.Discount); err != nil {
		h.Logger.Warn().Err(err).
			Str("evaluation_id", payload.EvaluationID).
			Int64("cart_id", payload.CartID).
			Int64("vendor_id", payload.Discount.VendorID).
			Msg("persist retry failed")
		return err
	}
	h.Logger.Info().
		Str("evaluation_id", payload.EvaluationID).
		Int64("cart_id", payload.CartID).
		Int64("vendor_id", payload.Discount.VendorID).
		Msg("persist retry succeeded")
	return nil
}

// NewMux registers all task handlers.
func NewMux(h PersistHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeDiscountPersist, h)
	return mux
}
