// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt - {{.Number}}</title>
</head>
<body>
<div class="receipt">
<div class="header">
<div class="company-name">HOSPX</div>
<div class="company-tagline">Professional Web Hosting Solutions</div>
</div>
<h2>Payment Receipt</h2>
<table>
<tr><th>Receipt #</th><td>{{.Number}}</td></tr>
<tr><th>Date</th><td>{{.Date}}</td></tr>
<tr><th>Customer</th><td>{{.Customer}}</td></tr>
<tr><th>Payment Method</th><td>{{.Method}}</td></tr>
<tr><th>Status</th><td class="status-{{.StatusClass}}">{{.Status}}</td></tr>
<tr><th>Service Type</th><td>{{.Type}}</td></tr>
</table>
<div class="amount">Total Paid: {{.Amount}} {{.Currency}}</div>
{{if .Database}}<div class="service-details">
Database: {{.Database}}<br>
Period: {{.Period}}
</div>
{{end}}<p>Thank you for choosing HOSPX!</p>
<p>This is a computer-generated receipt.</p>
<p class="print-date">Printed: {{.Printed}}</p>
</div>
</body>
</html>
`))

type receiptData struct {
	Number      string
	Date        string
	Customer    string
	Method      string
	Status      string
	StatusClass string
	Type        string
	Amount      string
	Currency    string
	Database    string
	Period      string
	Printed     string
}

// Receipt renders an HTML receipt for a payment and suggests a file name
func (s *Service) Receipt(ctx context.Context, id string) ([]byte, string, error) {
	p, err := s.store.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrPaymentNotFound
	}
	if err != nil {
		return nil, "", err
	}

	body, err := RenderReceipt(p, s.store.Now())
	if err != nil {
		return nil, "", err
	}
	return body, "receipt-" + receiptNumber(p) + ".html", nil
}

// RenderReceipt renders p as of printed
func RenderReceipt(p *models.PaymentDetail, printed time.Time) ([]byte, error) {
	amount, _ := p.Amount.Float64()
	data := receiptData{
		Number:      receiptNumber(p),
		Date:        p.CreatedAt.Format("02/01/2006"),
		Customer:    orNA(p.UserName),
		Method:      strings.ToUpper(p.PaymentMethod),
		Status:      strings.ToUpper(p.Status),
		StatusClass: p.Status,
		Type:        strings.ToUpper(orDefault(p.PaymentType, models.PaymentSubscription)),
		Amount:      humanize.FormatFloat("#,###.##", amount),
		Currency:    orDefault(p.Currency, "BDT"),
		Printed:     printed.Format("02/01/2006 15:04"),
	}

	switch {
	case p.ReferenceData.DatabaseName != "":
		data.Database = p.ReferenceData.DatabaseName
	case p.DatabaseName != nil:
		data.Database = *p.DatabaseName
	}
	if data.Database != "" {
		data.Period = periodLabel(p.ReferenceData.Period, p.ReferenceData.PeriodType)
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func receiptNumber(p *models.PaymentDetail) string {
	if p.TransactionID != nil && *p.TransactionID != "" {
		return *p.TransactionID
	}
	return p.ID
}

// periodLabel formats "1 month" or "3 days"
func periodLabel(period int, periodType string) string {
	if period <= 0 {
		period = 1
	}
	unit := strings.TrimSuffix(orDefault(periodType, models.PeriodMonths), "s")
	if period > 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", period, unit)
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
