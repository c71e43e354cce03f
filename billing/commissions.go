// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

var hundred = decimal.NewFromInt(100)

// ProcessCommission credits the referrer of the database owner a payment
// was for. It returns nil without error when no commission applies: the
// payment is not completed, or the owner was not referred.
//
// The owner is the owner of reference_data.database_id, falling back to
// reference_data.database_owner_id and then to the payer.
func (s *Service) ProcessCommission(ctx context.Context, paymentID string) (*models.Commission, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, nil
	}

	ownerID := ""
	if dbID := p.ReferenceData.DatabaseID; dbID != "" {
		tdb, err := s.store.GetDatabase(ctx, dbID)
		switch {
		case err == nil:
			ownerID = tdb.UserID
		case errors.Is(err, store.ErrNotFound):
			slog.Warn("payment references a missing database", "payment_id", paymentID, "database_id", dbID)
		default:
			return nil, err
		}
	}
	if ownerID == "" {
		ownerID = p.ReferenceData.DatabaseOwnerID
	}
	if ownerID == "" {
		ownerID = p.UserID
	}

	owner, err := s.store.GetUser(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("database owner %s not found", ownerID)
	}
	if err != nil {
		return nil, err
	}
	if owner.ReferredBy == nil {
		return nil, nil
	}

	if _, err := s.store.GetUser(ctx, *owner.ReferredBy); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("referrer no longer exists", "payment_id", paymentID, "referrer_id", *owner.ReferredBy)
			return nil, nil
		}
		return nil, err
	}

	return s.CreateCommission(ctx, *owner.ReferredBy, owner.ID, paymentID, p.Amount)
}

// CreateCommission records the referrer's commission on one payment using
// the referrer's commission settings. A payment already credited returns
// the existing commission.
func (s *Service) CreateCommission(ctx context.Context, referrerID, referredID, paymentID string, amount decimal.Decimal) (*models.Commission, error) {
	existing, err := s.store.GetCommissionByPayment(ctx, paymentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	referrer, err := s.store.GetUser(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load referrer: %w", err)
	}

	c := &models.Commission{
		UserID:           referrerID,
		ReferredUserID:   referredID,
		PaymentID:        paymentID,
		CommissionAmount: CommissionAmount(referrer, amount),
		CommissionType:   referrer.CommissionType,
		Status:           models.CommissionPending,
	}
	if c.CommissionType == "" {
		c.CommissionType = models.CommissionPercentage
	}
	if !c.CommissionAmount.IsPositive() {
		return nil, ErrInvalidCommission
	}

	if err := s.store.CreateCommission(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return s.store.GetCommissionByPayment(ctx, paymentID)
		}
		return nil, err
	}

	slog.Info("commission created", "commission_id", c.ID, "referrer_id", referrerID,
		"payment_id", paymentID, "amount", c.CommissionAmount.StringFixed(2))
	return c, nil
}

// CommissionAmount is amount*percentage/100 rounded to cents for
// percentage referrers and the fixed amount otherwise
func CommissionAmount(referrer *models.User, amount decimal.Decimal) decimal.Decimal {
	if referrer.CommissionType == models.CommissionFixed {
		return referrer.CommissionFixed.Round(2)
	}
	return amount.Mul(referrer.CommissionPercentage).Div(hundred).Round(2)
}

// MarkCommissionsPaid pays the pending commissions among ids. Every id
// must exist.
func (s *Service) MarkCommissionsPaid(ctx context.Context, ids []string) (int, error) {
	n, err := s.store.MarkCommissionsPaid(ctx, ids)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrCommissionNotFound
	}
	return n, err
}

// BulkUpdateCommissions sets status on every id
func (s *Service) BulkUpdateCommissions(ctx context.Context, ids []string, status string) (int, error) {
	switch status {
	case models.CommissionPending, models.CommissionPaid, models.CommissionCancelled:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.UpdateCommissionStatus(ctx, ids, status)
}

// PayAllPending pays every pending commission, or only userID's when set
func (s *Service) PayAllPending(ctx context.Context, userID string) (int, error) {
	ids, err := s.store.PendingCommissionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.MarkCommissionsPaid(ctx, ids)
}
