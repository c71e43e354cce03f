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

const paymentColumns = `id, user_id, amount, currency, payment_method, transaction_id, status, payment_type,
	database_id, reference_data, notes, created_at, updated_at`

const paymentDetailSelect = `
	SELECT p.id, p.user_id, p.amount, p.currency, p.payment_method, p.transaction_id, p.status,
		p.payment_type, p.database_id, p.reference_data, p.notes, p.created_at, p.updated_at,
		u.full_name AS user_name, u.email AS user_email, u.phone AS user_phone,
		d.database_name, dom.domain_name
	FROM payments p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN tenant_databases d ON d.id = p.database_id
	LEFT JOIN domains dom ON dom.id = d.domain_id`

// SearchPerPage is the page size of the completed payment search
const SearchPerPage = 10

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	now := s.Now()
	if p.ID == "" {
		p.ID = auth.NewID()
	}
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	if p.PaymentType == "" {
		p.PaymentType = models.PaymentSubscription
	}
	if p.DatabaseID == nil && p.ReferenceData.DatabaseID != "" {
		id := p.ReferenceData.DatabaseID
		p.DatabaseID = &id
	}
	p.Amount = p.Amount.Round(2)
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Amount, p.Currency, p.PaymentMethod, p.TransactionID, p.Status, p.PaymentType,
		p.DatabaseID, p.ReferenceData, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPayment returns a payment joined with its payer and database
func (s *Store) GetPayment(ctx context.Context, id string) (*models.PaymentDetail, error) {
	var p models.PaymentDetail
	err := s.get(ctx, &p, paymentDetailSelect+` WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return &p, nil
}

// DateRange bounds created_at by whole days, both ends inclusive
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) apply(w *where, column string) {
	if r.From != nil {
		w.add(column+" >= ?", DateOnly(*r.From))
	}
	if r.To != nil {
		w.add(column+" < ?", DateOnly(*r.To).AddDate(0, 0, 1))
	}
}

type PaymentFilter struct {
	Status        string
	PaymentMethod string
	PaymentType   string
	UserID        string
	Search        string
	Dates         DateRange
}

func (f PaymentFilter) where() *where {
	w := &where{}
	if f.Status != "" {
		w.add("p.status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		w.add("p.payment_method = ?", f.PaymentMethod)
	}
	if f.PaymentType != "" {
		w.add("p.payment_type = ?", f.PaymentType)
	}
	if f.UserID != "" {
		w.add("p.user_id = ?", f.UserID)
	}
	f.Dates.apply(w, "p.created_at")
	if f.Search != "" {
		pat := likePattern(f.Search)
		w.add("(LOWER(p.transaction_id) LIKE ? OR LOWER(u.full_name) LIKE ? OR LOWER(u.email) LIKE ?)", pat, pat, pat)
	}
	return w
}

func (s *Store) ListPayments(ctx context.Context, f PaymentFilter, p Page) ([]models.PaymentDetail, int, error) {
	w := f.where()

	var total int
	err := s.get(ctx, &total, `SELECT COUNT(*) FROM payments p JOIN users u ON u.id = p.user_id`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	rows := []models.PaymentDetail{}
	args := append(w.args, p.Limit(), p.Offset())
	err = s.selectRows(ctx, &rows, paymentDetailSelect+w.String()+
		` ORDER BY p.created_at DESC, p.id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return rows, total, nil
}

// ExportPayments returns every payment matching f, newest first
func (s *Store) ExportPayments(ctx context.Context, f PaymentFilter) ([]models.PaymentDetail, error) {
	w := f.where()
	rows := []models.PaymentDetail{}
	err := s.selectRows(ctx, &rows, paymentDetailSelect+w.String()+` ORDER BY p.created_at DESC, p.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export payments: %w", err)
	}
	return rows, nil
}

func (s *Store) RecentPayments(ctx context.Context, limit int) ([]models.PaymentDetail, error) {
	rows := []models.PaymentDetail{}
	err := s.selectRows(ctx, &rows, paymentDetailSelect+` ORDER BY p.created_at DESC, p.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent payments: %w", err)
	}
	return rows, nil
}

// SearchCompletedByEmail pages through completed payments whose payer email
// contains email
func (s *Store) SearchCompletedByEmail(ctx context.Context, email string, page int) ([]models.PaymentDetail, int, error) {
	pg := Page{Page: page, PerPage: SearchPerPage}
	w := &where{}
	w.add("p.status = ?", models.PaymentCompleted)
	w.add("LOWER(u.email) LIKE ?", likePattern(email))

	var total int
	err := s.get(ctx, &total, `SELECT COUNT(*) FROM payments p JOIN users u ON u.id = p.user_id`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payment search: %w", err)
	}

	rows := []models.PaymentDetail{}
	args := append(w.args, pg.Limit(), pg.Offset())
	err = s.selectRows(ctx, &rows, paymentDetailSelect+w.String()+
		` ORDER BY p.created_at DESC, p.id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search payments: %w", err)
	}
	return rows, total, nil
}

// PendingPaymentIDs lists pending payments oldest first
func (s *Store) PendingPaymentIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.selectRows(ctx, &ids, `SELECT id FROM payments WHERE status = ? ORDER BY created_at, id`, models.PaymentPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return ids, nil
}

// UpdatePaymentStatus sets the status; a nil notes leaves notes unchanged
func (s *Store) UpdatePaymentStatus(ctx context.Context, id, status string, notes *string) error {
	query := `UPDATE payments SET status = ?, updated_at = ?`
	args := []interface{}{status, s.Now()}
	if notes != nil {
		query += `, notes = ?`
		args = append(args, *notes)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	n, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletePayment marks a payment completed unless it already is. It
// reports false when no row changed, so only one concurrent caller wins.
func (s *Store) CompletePayment(ctx context.Context, id string) (bool, error) {
	n, err := s.exec(ctx, `UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		models.PaymentCompleted, s.Now(), id, models.PaymentCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}
	return n > 0, nil
}

func (s *Store) SetPaymentReferenceData(ctx context.Context, id string, ref models.ReferenceData) error {
	n, err := s.exec(ctx, `UPDATE payments SET reference_data = ?, updated_at = ? WHERE id = ?`, ref, s.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment reference data: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type paymentTotals struct {
	Total     int             `db:"total"`
	Completed int             `db:"completed"`
	Pending   int             `db:"pending"`
	Revenue   decimal.Decimal `db:"revenue"`
}

// PaymentStats summarizes payments in a date range, optionally for one payer
func (s *Store) PaymentStats(ctx context.Context, userID string, dates DateRange) (models.PaymentStats, error) {
	var st models.PaymentStats

	w := &where{}
	if userID != "" {
		w.add("user_id = ?", userID)
	}
	dates.apply(w, "created_at")

	var t paymentTotals
	args := append([]interface{}{models.PaymentCompleted, models.PaymentPending, models.PaymentCompleted}, w.args...)
	err := s.get(ctx, &t, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS revenue
		FROM payments`+w.String(), args...)
	if err != nil {
		return st, fmt.Errorf("failed to compute payment stats: %w", err)
	}

	now := s.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	mw := &where{}
	mw.add("status = ?", models.PaymentCompleted)
	mw.add("created_at >= ?", monthStart)
	mw.add("created_at < ?", monthStart.AddDate(0, 1, 0))
	if userID != "" {
		mw.add("user_id = ?", userID)
	}
	var monthly decimal.Decimal
	if err := s.get(ctx, &monthly, `SELECT COALESCE(SUM(amount), 0) FROM payments`+mw.String(), mw.args...); err != nil {
		return st, fmt.Errorf("failed to compute monthly revenue: %w", err)
	}

	methods := []models.MethodCount{}
	cw := &where{}
	cw.add("status = ?", models.PaymentCompleted)
	if userID != "" {
		cw.add("user_id = ?", userID)
	}
	dates.apply(cw, "created_at")
	err = s.selectRows(ctx, &methods, `
		SELECT payment_method AS method, COUNT(*) AS count FROM payments`+cw.String()+`
		GROUP BY payment_method ORDER BY count DESC, payment_method`, cw.args...)
	if err != nil {
		return st, fmt.Errorf("failed to compute payment methods: %w", err)
	}

	st = models.PaymentStats{
		TotalPayments:     t.Total,
		CompletedPayments: t.Completed,
		PendingPayments:   t.Pending,
		TotalRevenue:      t.Revenue.Round(2),
		MonthlyRevenue:    monthly.Round(2),
		PaymentMethods:    methods,
	}
	return st, nil
}

type revenueRow struct {
	CreatedAt time.Time       `db:"created_at"`
	Amount    decimal.Decimal `db:"amount"`
}

// ReportMonths is how many months of history the revenue report covers
const ReportMonths = 12

// RevenueReport groups completed payments by calendar month (newest first,
// at most ReportMonths) and ranks the top five payers.
func (s *Store) RevenueReport(ctx context.Context, dates DateRange) (models.RevenueReport, error) {
	report := models.RevenueReport{MonthlyData: []models.MonthlyRevenue{}, TopUsers: []models.TopPayer{}}

	w := &where{}
	w.add("status = ?", models.PaymentCompleted)
	dates.apply(w, "created_at")

	var rows []revenueRow
	if err := s.selectRows(ctx, &rows, `SELECT created_at, amount FROM payments`+w.String(), w.args...); err != nil {
		return report, fmt.Errorf("failed to query revenue: %w", err)
	}
	report.MonthlyData = groupByMonth(rows)

	if len(report.MonthlyData) > 0 {
		sum := decimal.Zero
		for _, m := range report.MonthlyData {
			sum = sum.Add(m.AverageOrder)
		}
		report.AverageOrder = sum.Div(decimal.NewFromInt(int64(len(report.MonthlyData)))).Round(2)
	}

	tw := &where{}
	tw.add("p.status = ?", models.PaymentCompleted)
	dates.apply(tw, "p.created_at")
	err := s.selectRows(ctx, &report.TopUsers, `
		SELECT u.id AS user_id, u.full_name, u.email,
			COUNT(p.id) AS order_count, COALESCE(SUM(p.amount), 0) AS total_revenue
		FROM payments p
		JOIN users u ON u.id = p.user_id`+tw.String()+`
		GROUP BY u.id, u.full_name, u.email
		ORDER BY total_revenue DESC, u.id
		LIMIT 5`, tw.args...)
	if err != nil {
		return report, fmt.Errorf("failed to query top payers: %w", err)
	}
	return report, nil
}

func groupByMonth(rows []revenueRow) []models.MonthlyRevenue {
	byMonth := map[string]*models.MonthlyRevenue{}
	for _, r := range rows {
		t := r.CreatedAt.UTC()
		key := t.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &models.MonthlyRevenue{Month: key, MonthName: t.Format("January 2006")}
			byMonth[key] = m
		}
		m.PaymentCount++
		m.Revenue = m.Revenue.Add(r.Amount)
	}

	months := make([]models.MonthlyRevenue, 0, len(byMonth))
	for _, m := range byMonth {
		m.Revenue = m.Revenue.Round(2)
		m.AverageOrder = m.Revenue.Div(decimal.NewFromInt(int64(m.PaymentCount))).Round(2)
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
	if len(months) > ReportMonths {
		months = months[:ReportMonths]
	}
	return months
}
