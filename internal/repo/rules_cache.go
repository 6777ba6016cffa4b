package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

// CachedRules decorates a repository with a short-lived Redis cache for
// per-vendor rule sets. Everything else passes through untouched.
type CachedRules struct {
	discount.Repository
	Cache  *discount.Cache
	Logger zerolog.Logger
}

func rulesKey(vendorID int64) string {
	return fmt.Sprintf("rules:vendor:%d", vendorID)
}

// ActiveAutomaticRules serves rules from cache when present, falling back to
// the database and repopulating on miss. Cache errors degrade to a direct read.
func (c CachedRules) ActiveAutomaticRules(ctx context.Context, vendorID int64, now time.Time) ([]discount.Rule, error) {
	key := rulesKey(vendorID)
	var cached []discount.Rule
	hit, err := c.Cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.Logger.Warn().Err(err).Int64("vendor_id", vendorID).Msg("rule cache read failed")
	} else if hit {
		return filterValid(cached, now), nil
	}

	rules, err := c.Repository.ActiveAutomaticRules(ctx, vendorID, now)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.SetJSON(ctx, key, rules); err != nil {
		c.Logger.Warn().Err(err).Int64("vendor_id", vendorID).Msg("rule cache write failed")
	}
	return rules, nil
}

// filterValid re-checks the validity window so a cached set never serves a
// rule past its expiry.
func filterValid(rules []discount.Rule, now time.Time) []discount.Rule {
	out := rules[:0]
	for _, r := range rules {
		if r.ValidFrom.After(now) {
			continue
		}
		if r.ValidUntil != nil && r.ValidUntil.Before(now) {
			continue
		}
		out = append(out, r)
	}
	return out
}
