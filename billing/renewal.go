// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

const dateLayout = "2006-01-02"

// NextExpiry extends current by period. A period below one is a fraction
// of a 30 day month; otherwise periodType picks days or calendar months.
// Whole numbers are used, rounding half up.
func NextExpiry(current time.Time, period decimal.Decimal, periodType string) (time.Time, error) {
	if !period.IsPositive() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	current = store.DateOnly(current)

	if period.LessThan(decimal.NewFromInt(1)) {
		days := period.Mul(decimal.NewFromInt(30)).Round(0).IntPart()
		return current.AddDate(0, 0, int(days)), nil
	}

	n := int(period.Round(0).IntPart())
	switch periodType {
	case models.PeriodDays:
		return current.AddDate(0, 0, n), nil
	case models.PeriodMonths:
		return addMonths(current, n), nil
	default:
		return time.Time{}, fmt.Errorf("%w: period type %q", ErrInvalidPeriod, periodType)
	}
}

// addMonths clamps to the last day of the target month, so Jan 31 plus one
// month is the last day of February
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// RenewDatabase extends a database from its current expiry and reactivates it
func (s *Service) RenewDatabase(ctx context.Context, id string, period decimal.Decimal, periodType string) (time.Time, error) {
	return renewDatabase(ctx, s.store, id, period, periodType)
}

func renewDatabase(ctx context.Context, st *store.Store, id string, period decimal.Decimal, periodType string) (time.Time, error) {
	tdb, err := st.GetDatabase(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, ErrDatabaseNotFound
	}
	if err != nil {
		return time.Time{}, err
	}

	expiry, err := NextExpiry(tdb.ExpiryDate, period, periodType)
	if err != nil {
		return time.Time{}, err
	}
	if err := st.RenewDatabase(ctx, id, expiry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return time.Time{}, ErrDatabaseNotFound
		}
		return time.Time{}, err
	}
	return expiry, nil
}
