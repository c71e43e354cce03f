// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Rows loaded through sqlx carry db tags; JSON tags shape API output:

  - User: account with role, status, referral and commission settings
  - ReferenceCode: referral code owned by an executive or admin
  - Domain: subdomain or custom domain attached to a tenant
  - TenantDatabase: customer database provisioned on the control panel
  - Payment: manually confirmed payment with ReferenceData
  - Commission: referral payout tied to exactly one payment
  - Session, EmailLog: bookkeeping rows

Joined variants (DatabaseDetail, PaymentDetail, CommissionDetail,
ReferenceCodeDetail) embed the base row and add owner columns.

# Money

Amounts use decimal.Decimal. Never convert to float64 except for
validation comparisons.

# Validation

Request types carry go-playground/validator tags:

	if err := models.Validate(&req); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			// verr.Fields maps json field -> failed rule
		}
	}

# Constants

Roles:

	RoleSuperAdmin, RoleAdmin, RoleExecutive, RoleUser

Payment status:

	PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled

Commission status:

	CommissionPending, CommissionPaid, CommissionCancelled
*/
package models
