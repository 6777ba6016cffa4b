package discount

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/marketplace-discounts/internal/obs"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Repository captures the storage operations the engine consumes. The
// calculation core itself never touches storage, so it can be exercised with
// in-memory fixtures.
type Repository interface {
	CartItems(ctx context.Context, cartID int64) ([]LineItem, error)
	ActiveAutomaticRules(ctx context.Context, vendorID int64, now time.Time) ([]Rule, error)
	CategoryIDs(ctx context.Context, productIDs []int64) (map[int64]int64, error)
	UpsertVendorDiscount(ctx context.Context, cartID int64, d VendorDiscount) error
	VendorDiscounts(ctx context.Context, cartID int64) ([]VendorDiscount, error)
	DeleteVendorDiscounts(ctx context.Context, cartID int64) error
}

// PersistScheduler enqueues a retry when the applied-discount upsert fails.
// The row converges asynchronously; the upsert key makes the retry safe.
type PersistScheduler interface {
	SchedulePersist(ctx context.Context, evaluationID string, cartID int64, d VendorDiscount) error
}

// Service orchestrates cart evaluations: it loads the cart snapshot, fans the
// vendor groups out over a bounded worker pool, and persists one
// applied-discount row per qualifying vendor.
type Service struct {
	Repo      Repository
	Scheduler PersistScheduler
	Logger    zerolog.Logger
	Workers   int
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) workers() int {
	if s == nil || s.Workers <= 0 {
		return 4
	}
	return s.Workers
}

// Evaluate runs the full pipeline for one cart. Vendors are independent:
// a failure local to one vendor (rule load, missing display name, upsert)
// skips that vendor and the rest proceed. Only a cart-items read failure
// aborts the evaluation.
func (s *Service) Evaluate(ctx context.Context, cartID int64) (Result, error) {
	if s == nil || s.Repo == nil {
		return Result{}, errors.New("discount service not configured")
	}
	if cartID <= 0 {
		return Result{}, fmt.Errorf("cart id must be positive: %w", ErrInvalidInput)
	}

	evalID := uuid.NewString()
	items, err := s.Repo.CartItems(ctx, cartID)
	if err != nil {
		return Result{}, fmt.Errorf("load cart items: %w", err)
	}

	groups := GroupByVendor(items)
	result := Result{Applied: []VendorDiscount{}, VendorsProcessed: len(groups)}
	if len(groups) == 0 {
		return result, nil
	}

	outcomes := make([]*VendorDiscount, len(groups))
	sem := make(chan struct{}, s.workers())
	var wg sync.WaitGroup
	for i := range groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			outcomes[i] = s.evaluateVendor(ctx, evalID, cartID, groups[i])
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	for _, d := range outcomes {
		if d == nil {
			continue
		}
		result.Applied = append(result.Applied, *d)
		result.TotalDiscount += d.Amount
		if obs.DiscountAmountCents != nil {
			obs.DiscountAmountCents.Observe(float64(d.Amount))
		}
	}
	if obs.EvaluationsTotal != nil {
		obs.EvaluationsTotal.WithLabelValues(evaluationOutcome(result)).Inc()
	}
	s.Logger.Debug().
		Str("evaluation_id", evalID).
		Int64("cart_id", cartID).
		Int("vendors", result.VendorsProcessed).
		Int("discounts", len(result.Applied)).
		Int64("total_discount", result.TotalDiscount).
		Msg("cart evaluated")
	return result, nil
}

func (s *Service) evaluateVendor(ctx context.Context, evalID string, cartID int64, group VendorGroup) *VendorDiscount {
	logger := s.Logger.With().
		Str("evaluation_id", evalID).
		Int64("cart_id", cartID).
		Int64("vendor_id", group.VendorID).
		Logger()

	rules, err := s.Repo.ActiveAutomaticRules(ctx, group.VendorID, s.now())
	if err != nil {
		logger.Warn().Err(err).Msg("load vendor rules failed, vendor skipped")
		skipVendor("rules_load")
		return nil
	}
	if len(rules) == 0 {
		return nil
	}

	var categories map[int64]int64
	if NeedsCategories(rules) {
		productIDs := make([]int64, 0, len(group.Items))
		for _, it := range group.Items {
			productIDs = append(productIDs, it.ProductID)
		}
		categories, err = s.Repo.CategoryIDs(ctx, productIDs)
		if err != nil {
			logger.Warn().Err(err).Msg("resolve categories failed, vendor skipped")
			skipVendor("category_resolve")
			return nil
		}
	}

	sel, ok := SelectBest(rules, group.Items, categories)
	if !ok {
		return nil
	}

	vendorName := VendorDisplayName(group.Items)
	if vendorName == "" {
		logger.Warn().Msg("vendor display name missing, vendor skipped")
		skipVendor("vendor_name")
		return nil
	}

	applied := Apply(sel, group, vendorName)
	if err := s.Repo.UpsertVendorDiscount(ctx, cartID, applied); err != nil {
		// The discount is still reported: the quote must not under-report
		// because of a transient write error. The retry task converges the
		// persisted row through the same idempotent upsert.
		logger.Error().Err(err).Int64("discount_id", applied.DiscountID).Msg("persist applied discount failed")
		if obs.PersistFailuresTotal != nil {
			obs.PersistFailuresTotal.Inc()
		}
		if s.Scheduler != nil {
			if schedErr := s.Scheduler.SchedulePersist(ctx, evalID, cartID, applied); schedErr != nil {
				logger.Error().Err(schedErr).Msg("schedule persist retry failed")
			}
		}
	}
	return &applied
}

// Persisted returns the applied-discount rows currently stored for a cart.
func (s *Service) Persisted(ctx context.Context, cartID int64) ([]VendorDiscount, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("discount service not configured")
	}
	if cartID <= 0 {
		return nil, fmt.Errorf("cart id must be positive: %w", ErrInvalidInput)
	}
	return s.Repo.VendorDiscounts(ctx, cartID)
}

// Clear removes every persisted applied-discount row for a cart.
func (s *Service) Clear(ctx context.Context, cartID int64) error {
	if s == nil || s.Repo == nil {
		return errors.New("discount service not configured")
	}
	if cartID <= 0 {
		return fmt.Errorf("cart id must be positive: %w", ErrInvalidInput)
	}
	return s.Repo.DeleteVendorDiscounts(ctx, cartID)
}

func evaluationOutcome(res Result) string {
	if len(res.Applied) == 0 {
		return "no_discount"
	}
	return "discounted"
}

func skipVendor(reason string) {
	if obs.VendorsSkippedTotal != nil {
		obs.VendorsSkippedTotal.WithLabelValues(reason).Inc()
	}
}
