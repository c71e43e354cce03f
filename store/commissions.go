// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
)

const commissionColumns = `id, user_id, referred_user_id, payment_id, commission_amount, commission_type, status, created_at, paid_at`

const commissionDetailSelect = `
	SELECT c.id, c.user_id, c.referred_user_id, c.payment_id, c.commission_amount, c.commission_type,
		c.status, c.created_at, c.paid_at,
		u.full_name AS user_name, u.email AS user_email,
		ru.full_name AS referred_user_name, ru.email AS referred_user_email,
		p.amount AS payment_amount, p.payment_method
	FROM commissions c
	JOIN users u ON u.id = c.user_id
	JOIN users ru ON ru.id = c.referred_user_id
	JOIN payments p ON p.id = c.payment_id`

// SummaryDays is how many recent days the daily commission summary returns
const SummaryDays = 30

// CreateCommission inserts c. A second commission for the same payment
// fails with ErrDuplicate.
func (s *Store) CreateCommission(ctx context.Context, c *models.Commission) error {
	if c.ID == "" {
		c.ID = auth.NewID()
	}
	if c.Status == "" {
		c.Status = models.CommissionPending
	}
	c.CommissionAmount = c.CommissionAmount.Round(2)
	c.CreatedAt = s.Now()

	_, err := s.exec(ctx, `
		INSERT INTO commissions (`+commissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.ReferredUserID, c.PaymentID, c.CommissionAmount, c.CommissionType, c.Status,
		c.CreatedAt, c.PaidAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("commission for payment %s: %w", c.PaymentID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert commission: %w", err)
	}
	return nil
}

func (s *Store) GetCommissionByPayment(ctx context.Context, paymentID string) (*models.Commission, error) {
	var c models.Commission
	err := s.get(ctx, &c, `SELECT `+commissionColumns+` FROM commissions WHERE payment_id = ?`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query commission by payment: %w", err)
	}
	return &c, nil
}

func (s *Store) GetCommission(ctx context.Context, id string) (*models.CommissionDetail, error) {
	var c models.CommissionDetail
	err := s.get(ctx, &c, commissionDetailSelect+` WHERE c.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query commission: %w", err)
	}
	return &c, nil
}

type CommissionFilter struct {
	Status         string
	UserID         string
	CommissionType string
	Dates          DateRange
}

func (f CommissionFilter) where(alias string) *where {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}
	w := &where{}
	if f.Status != "" {
		w.add(col("status")+" = ?", f.Status)
	}
	if f.UserID != "" {
		w.add(col("user_id")+" = ?", f.UserID)
	}
	if f.CommissionType != "" {
		w.add(col("commission_type")+" = ?", f.CommissionType)
	}
	f.Dates.apply(w, col("created_at"))
	return w
}

func (s *Store) ListCommissions(ctx context.Context, f CommissionFilter, p Page) ([]models.CommissionDetail, int, error) {
	w := f.where("c")

	var total int
	if err := s.get(ctx, &total, `SELECT COUNT(*) FROM commissions c`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count commissions: %w", err)
	}

	rows := []models.CommissionDetail{}
	args := append(w.args, p.Limit(), p.Offset())
	err := s.selectRows(ctx, &rows, commissionDetailSelect+w.String()+
		` ORDER BY c.created_at DESC, c.id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list commissions: %w", err)
	}
	return rows, total, nil
}

// ExportCommissions returns every commission matching f, newest first
func (s *Store) ExportCommissions(ctx context.Context, f CommissionFilter) ([]models.CommissionDetail, error) {
	w := f.where("c")
	rows := []models.CommissionDetail{}
	err := s.selectRows(ctx, &rows, commissionDetailSelect+w.String()+` ORDER BY c.created_at DESC, c.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export commissions: %w", err)
	}
	return rows, nil
}

// PendingCommissionIDs lists pending commissions, optionally for one referrer
func (s *Store) PendingCommissionIDs(ctx context.Context, userID string) ([]string, error) {
	w := &where{}
	w.add("status = ?", models.CommissionPending)
	if userID != "" {
		w.add("user_id = ?", userID)
	}
	ids := []string{}
	if err := s.selectRows(ctx, &ids, `SELECT id FROM commissions`+w.String()+` ORDER BY created_at, id`, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list pending commissions: %w", err)
	}
	return ids, nil
}

// MarkCommissionsPaid pays the pending commissions among ids. Every id must
// exist or nothing changes. Returns the number of rows paid.
func (s *Store) MarkCommissionsPaid(ctx context.Context, ids []string) (int, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	var paid int64
	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.requireCommissions(ctx, ids); err != nil {
			return err
		}
		n, err := tx.execIn(ctx, `
			UPDATE commissions SET status = ?, paid_at = ?
			WHERE id IN (?) AND status = ?
		`, models.CommissionPaid, tx.Now(), ids, models.CommissionPending)
		if err != nil {
			return fmt.Errorf("failed to mark commissions paid: %w", err)
		}
		paid = n
		return nil
	})
	return int(paid), err
}

// UpdateCommissionStatus sets status on every id; paying sets paid_at
func (s *Store) UpdateCommissionStatus(ctx context.Context, ids []string, status string) (int, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE commissions SET status = ? WHERE id IN (?)`
	args := []interface{}{status, ids}
	if status == models.CommissionPaid {
		query = `UPDATE commissions SET status = ?, paid_at = ? WHERE id IN (?)`
		args = []interface{}{status, s.Now(), ids}
	}

	n, err := s.execIn(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update commission status: %w", err)
	}
	return int(n), nil
}

func (s *Store) requireCommissions(ctx context.Context, ids []string) error {
	var n int
	if err := s.getIn(ctx, &n, `SELECT COUNT(*) FROM commissions WHERE id IN (?)`, ids); err != nil {
		return fmt.Errorf("failed to check commissions: %w", err)
	}
	if n != len(ids) {
		return fmt.Errorf("%d of %d commissions: %w", len(ids)-n, len(ids), ErrNotFound)
	}
	return nil
}

func (s *Store) CommissionStats(ctx context.Context, userID string, dates DateRange) (models.CommissionStats, error) {
	f := CommissionFilter{UserID: userID, Dates: dates}
	w := f.where("")

	args := []interface{}{
		models.CommissionPaid, models.CommissionPending, models.CommissionCancelled,
		models.CommissionPaid, models.CommissionPending, models.CommissionCancelled,
	}
	args = append(args, w.args...)

	var st models.CommissionStats
	err := s.get(ctx, &st, `
		SELECT
			COUNT(*) AS total_commissions,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS paid_commissions,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_commissions,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS cancelled_commissions,
			COALESCE(SUM(commission_amount), 0) AS total_amount,
			COALESCE(SUM(CASE WHEN status = ? THEN commission_amount ELSE 0 END), 0) AS paid_amount,
			COALESCE(SUM(CASE WHEN status = ? THEN commission_amount ELSE 0 END), 0) AS pending_amount,
			COALESCE(SUM(CASE WHEN status = ? THEN commission_amount ELSE 0 END), 0) AS cancelled_amount
		FROM commissions`+w.String(), args...)
	if err != nil {
		return st, fmt.Errorf("failed to compute commission stats: %w", err)
	}
	return st, nil
}

// CommissionReport totals commissions per referrer, largest first
func (s *Store) CommissionReport(ctx context.Context, f CommissionFilter) ([]models.ReferrerCommissionReport, error) {
	w := f.where("c")
	args := append([]interface{}{models.CommissionPaid, models.CommissionPending}, w.args...)

	rows := []models.ReferrerCommissionReport{}
	err := s.selectRows(ctx, &rows, `
		SELECT u.id AS user_id, u.full_name AS user_name, u.email AS user_email,
			u.commission_type, u.commission_percentage, u.commission_fixed,
			COUNT(DISTINCT c.referred_user_id) AS referral_count,
			COUNT(c.id) AS commission_entries,
			COALESCE(SUM(CASE WHEN c.status = ? THEN c.commission_amount ELSE 0 END), 0) AS paid_commission,
			COALESCE(SUM(CASE WHEN c.status = ? THEN c.commission_amount ELSE 0 END), 0) AS pending_commission,
			COALESCE(SUM(c.commission_amount), 0) AS total_commission
		FROM commissions c
		JOIN users u ON u.id = c.user_id`+w.String()+`
		GROUP BY u.id, u.full_name, u.email, u.commission_type, u.commission_percentage, u.commission_fixed
		ORDER BY total_commission DESC, u.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute commission report: %w", err)
	}
	return rows, nil
}

type userCommissionTotals struct {
	Total       int             `db:"total"`
	Paid        int             `db:"paid"`
	Pending     int             `db:"pending"`
	Earned      decimal.Decimal `db:"earned"`
	PendingSum  decimal.Decimal `db:"pending_sum"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

// UserCommissionStats summarizes one referrer's commissions
func (s *Store) UserCommissionStats(ctx context.Context, userID string) (models.UserCommissionStats, error) {
	var st models.UserCommissionStats

	var t userCommissionTotals
	err := s.get(ctx, &t, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS paid,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = ? THEN commission_amount ELSE 0 END), 0) AS earned,
			COALESCE(SUM(CASE WHEN status = ? THEN commission_amount ELSE 0 END), 0) AS pending_sum,
			COALESCE(SUM(commission_amount), 0) AS total_amount
		FROM commissions WHERE user_id = ?
	`, models.CommissionPaid, models.CommissionPending, models.CommissionPaid, models.CommissionPending, userID)
	if err != nil {
		return st, fmt.Errorf("failed to compute user commission stats: %w", err)
	}

	st = models.UserCommissionStats{
		TotalCommissions:      t.Total,
		PaidCommissions:       t.Paid,
		PendingCommissions:    t.Pending,
		TotalEarned:           t.Earned,
		PendingEarnings:       t.PendingSum,
		TotalCommissionAmount: t.TotalAmount,
	}
	if t.Total == 0 {
		return st, nil
	}

	// Ordered selects keep the column type, which MIN/MAX lose on SQLite
	var latest, first time.Time
	if err := s.get(ctx, &latest, `SELECT created_at FROM commissions WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID); err != nil {
		return st, fmt.Errorf("failed to query latest commission: %w", err)
	}
	if err := s.get(ctx, &first, `SELECT created_at FROM commissions WHERE user_id = ? ORDER BY created_at ASC LIMIT 1`, userID); err != nil {
		return st, fmt.Errorf("failed to query first commission: %w", err)
	}
	st.LatestCommission = &latest
	st.FirstCommission = &first
	return st, nil
}

type commissionDayRow struct {
	CreatedAt time.Time       `db:"created_at"`
	Amount    decimal.Decimal `db:"commission_amount"`
	Status    string          `db:"status"`
}

// DailyCommissionSummary groups commissions by calendar day, newest first,
// for the SummaryDays most recent days that have any.
func (s *Store) DailyCommissionSummary(ctx context.Context, f CommissionFilter) ([]models.DailyCommissionSummary, error) {
	w := f.where("")
	var rows []commissionDayRow
	err := s.selectRows(ctx, &rows, `SELECT created_at, commission_amount, status FROM commissions`+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission summary: %w", err)
	}

	byDay := map[string]*models.DailyCommissionSummary{}
	for _, r := range rows {
		key := r.CreatedAt.UTC().Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &models.DailyCommissionSummary{Date: key}
			byDay[key] = d
		}
		d.Count++
		d.Amount = d.Amount.Add(r.Amount)
		switch r.Status {
		case models.CommissionPaid:
			d.PaidCount++
			d.PaidAmount = d.PaidAmount.Add(r.Amount)
		case models.CommissionPending:
			d.PendingCount++
			d.PendingAmount = d.PendingAmount.Add(r.Amount)
		}
	}

	days := make([]models.DailyCommissionSummary, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	if len(days) > SummaryDays {
		days = days[:SummaryDays]
	}
	return days, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
