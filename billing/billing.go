// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrDatabaseNotFound   = errors.New("database not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrForbidden          = errors.New("payments are limited to your own databases or databases of users you referred")
	ErrAlreadyCompleted   = errors.New("payment already completed")
	ErrInvalidCommission  = errors.New("commission amount must be positive")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPeriod      = errors.New("invalid renewal period")
)

// Service runs the payment approval and commission workflow
type Service struct {
	store *store.Store
	cfg   cliparse.BillingConfig
}

func New(st *store.Store, cfg cliparse.BillingConfig) *Service {
	return &Service{store: st, cfg: cfg}
}

// CreatePayment records a pending payment by payer for one database. The
// payer must own the database or have referred its owner.
func (s *Service) CreatePayment(ctx context.Context, payer *models.User, req models.CreatePaymentRequest) (*models.Payment, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	tdb, err := s.store.GetDatabase(ctx, req.DatabaseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDatabaseNotFound
	}
	if err != nil {
		return nil, err
	}

	isOwner := tdb.UserID == payer.ID
	isReferral := !isOwner && tdb.OwnerReferredBy != nil && *tdb.OwnerReferredBy == payer.ID
	if !isOwner && !isReferral {
		return nil, ErrForbidden
	}

	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentRenewal
	}
	txID := req.TransactionID

	p := &models.Payment{
		UserID:        payer.ID,
		Amount:        req.Amount,
		Currency:      s.cfg.Currency,
		PaymentMethod: req.PaymentMethod,
		TransactionID: &txID,
		Status:        models.PaymentPending,
		PaymentType:   paymentType,
		ReferenceData: models.ReferenceData{
			DatabaseID:        tdb.ID,
			DatabaseName:      tdb.DatabaseName,
			DatabaseOwnerID:   tdb.UserID,
			PhoneNumber:       req.PhoneNumber,
			Period:            req.Period,
			PeriodType:        req.PeriodType,
			ReferenceCode:     strings.TrimSpace(req.ReferenceCode),
			IsReferralPayment: isReferral,
			PaidByReferrer:    isReferral,
		},
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("payment created", "payment_id", p.ID, "user_id", payer.ID, "database_id", tdb.ID,
		"amount", p.Amount.StringFixed(2), "referral", isReferral)
	return p, nil
}

// UpdateStatus sets a payment's status. Completing a payment also runs
// commission processing; a commission failure is logged, not returned.
func (s *Service) UpdateStatus(ctx context.Context, id, status, notes string) error {
	switch status {
	case models.PaymentPending, models.PaymentCompleted, models.PaymentFailed, models.PaymentCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var notesArg *string
	if notes != "" {
		notesArg = &notes
	}
	if err := s.store.UpdatePaymentStatus(ctx, id, status, notesArg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	if status == models.PaymentCompleted {
		if _, err := s.ProcessCommission(ctx, id); err != nil {
			slog.Error("failed to process commission", "payment_id", id, "error", err)
		}
	}
	return nil
}

// ApproveResult describes what an approval did besides completing the payment
type ApproveResult struct {
	Renewed    bool
	NewExpiry  string
	Commission *models.Commission
	Warnings   []string
}

// Approve completes a payment, renews the database it pays for and creates
// the referral commission. Renewal and commission failures become warnings.
func (s *Service) Approve(ctx context.Context, id string) (ApproveResult, error) {
	var res ApproveResult

	p, err := s.store.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return res, ErrPaymentNotFound
	}
	if err != nil {
		return res, err
	}
	if p.Status == models.PaymentCompleted {
		return res, ErrAlreadyCompleted
	}

	// The conditional update row-locks the payment, so the renewal below
	// runs at most once per payment
	err = s.store.InTx(ctx, func(tx *store.Store) error {
		changed, err := tx.CompletePayment(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyCompleted
		}

		dbID := p.ReferenceData.DatabaseID
		if dbID == "" {
			return nil
		}
		period := decimal.NewFromInt(int64(p.ReferenceData.Period))
		if p.ReferenceData.Period == 0 {
			period = decimal.NewFromInt(1)
		}
		periodType := p.ReferenceData.PeriodType
		if periodType == "" {
			periodType = models.PeriodMonths
		}

		expiry, err := renewDatabase(ctx, tx, dbID, period, periodType)
		switch {
		case errors.Is(err, ErrDatabaseNotFound), errors.Is(err, ErrInvalidPeriod):
			slog.Error("failed to renew database for approved payment", "payment_id", id, "database_id", dbID, "error", err)
			res.Warnings = append(res.Warnings, "database renewal failed: "+err.Error())
		case err != nil:
			// A failed statement aborts the transaction on some drivers
			return fmt.Errorf("failed to renew database: %w", err)
		default:
			res.Renewed = true
			res.NewExpiry = expiry.Format(dateLayout)
		}
		return nil
	})
	if err != nil {
		return ApproveResult{}, err
	}

	c, err := s.ProcessCommission(ctx, id)
	if err != nil {
		slog.Error("failed to process commission", "payment_id", id, "error", err)
		res.Warnings = append(res.Warnings, "commission processing failed: "+err.Error())
	}
	res.Commission = c

	slog.Info("payment approved", "payment_id", id, "renewed", res.Renewed, "commission", c != nil)
	return res, nil
}

// Reject marks a payment failed and records the reason
func (s *Service) Reject(ctx context.Context, id, reason string) error {
	p, err := s.store.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	return s.store.InTx(ctx, func(tx *store.Store) error {
		var notes *string
		if reason != "" {
			notes = &reason
		}
		if err := tx.UpdatePaymentStatus(ctx, id, models.PaymentFailed, notes); err != nil {
			return err
		}
		if reason == "" {
			return nil
		}
		ref := p.ReferenceData
		ref.RejectionReason = reason
		return tx.SetPaymentReferenceData(ctx, id, ref)
	})
}

// ApproveAllPending approves every pending payment and returns how many
// succeeded
func (s *Service) ApproveAllPending(ctx context.Context) (int, error) {
	ids, err := s.store.PendingPaymentIDs(ctx)
	if err != nil {
		return 0, err
	}

	approved := 0
	for _, id := range ids {
		if _, err := s.Approve(ctx, id); err != nil {
			slog.Error("failed to approve payment", "payment_id", id, "error", err)
			continue
		}
		approved++
	}
	return approved, nil
}
