// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"testing"
)

func TestValidationError_SortedFields(t *testing.T) {
	e := &ValidationError{Fields: map[string]string{
		"transaction_id": "min=5",
		"amount":         "gte=1",
		"phone_number":   "min=11",
		"database_id":    "required",
	}}

	want := "validation failed: amount gte=1, database_id required, phone_number min=11, transaction_id min=5"
	for i := 0; i < 20; i++ {
		if got := e.Error(); got != want {
			t.Fatalf("Error() = %q, want %q", got, want)
		}
	}
}

func TestValidate_PaymentRequest(t *testing.T) {
	err := Validate(CreatePaymentRequest{
		DatabaseID:    "not-a-uuid",
		Period:        1,
		PeriodType:    PeriodMonths,
		PaymentMethod: "bkash",
		PhoneNumber:   "01712345678",
		TransactionID: "TX",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	for _, field := range []string{"database_id", "amount", "transaction_id"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("Expected %s to fail validation, got %v", field, verr.Fields)
		}
	}
	if _, ok := verr.Fields["phone_number"]; ok {
		t.Errorf("phone_number should pass, got %v", verr.Fields)
	}
}
