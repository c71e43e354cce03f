// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

var (
	paymentCSVHeader    = []string{"Transaction ID", "Date", "User Name", "User Email", "Amount", "Currency", "Method", "Status", "Type"}
	commissionCSVHeader = []string{"Commission ID", "User Name", "User Email", "Referred User", "Commission Amount", "Type", "Status", "Created Date"}
)

// ExportPayments writes the payments matching f as CSV
func (s *Service) ExportPayments(ctx context.Context, w io.Writer, f store.PaymentFilter) error {
	rows, err := s.store.ExportPayments(ctx, f)
	if err != nil {
		return err
	}
	return WritePaymentsCSV(w, rows)
}

// ExportCommissions writes the commissions matching f as CSV
func (s *Service) ExportCommissions(ctx context.Context, w io.Writer, f store.CommissionFilter) error {
	rows, err := s.store.ExportCommissions(ctx, f)
	if err != nil {
		return err
	}
	return WriteCommissionsCSV(w, rows)
}

func WritePaymentsCSV(w io.Writer, rows []models.PaymentDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(paymentCSVHeader); err != nil {
		return err
	}
	for _, p := range rows {
		txID := ""
		if p.TransactionID != nil {
			txID = *p.TransactionID
		}
		record := []string{
			txID,
			p.CreatedAt.Format(dateLayout),
			p.UserName,
			p.UserEmail,
			p.Amount.StringFixed(2),
			p.Currency,
			p.PaymentMethod,
			p.Status,
			orDefault(p.PaymentType, models.PaymentSubscription),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCommissionsCSV(w io.Writer, rows []models.CommissionDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(commissionCSVHeader); err != nil {
		return err
	}
	for _, c := range rows {
		record := []string{
			c.ID,
			c.UserName,
			c.UserEmail,
			c.ReferredUserName,
			c.CommissionAmount.StringFixed(2),
			c.CommissionType,
			c.Status,
			c.CreatedAt.Format(dateLayout),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
