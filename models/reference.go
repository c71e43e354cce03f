// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReferenceData is the JSON blob attached to a payment describing what it
// pays for and who paid it. Stored as TEXT so every dialect can hold it.
type ReferenceData struct {
	DatabaseID        string `json:"database_id,omitempty"`
	DatabaseName      string `json:"database_name,omitempty"`
	DatabaseOwnerID   string `json:"database_owner_id,omitempty"`
	PhoneNumber       string `json:"phone_number,omitempty"`
	Period            int    `json:"period,omitempty"`
	PeriodType        string `json:"period_type,omitempty"`
	ReferenceCode     string `json:"reference_code,omitempty"`
	IsReferralPayment bool   `json:"is_referral_payment"`
	PaidByReferrer    bool   `json:"paid_by_referrer"`
	RejectionReason   string `json:"rejection_reason,omitempty"`
}

// Value implements driver.Valuer.
func (r ReferenceData) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL and empty values decode to the zero value.
func (r *ReferenceData) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = ReferenceData{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("reference_data: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*r = ReferenceData{}
		return nil
	}
	return json.Unmarshal(raw, r)
}
