// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
)

const dateLayout = "2006-01-02"

// serviceError maps domain errors to responses. Anything unrecognized is
// logged and reported as a failure to perform action.
func serviceError(w http.ResponseWriter, err error, action string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.ValidationErrorResponse(w, err)
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, provisioning.ErrUserNotFound),
		errors.Is(err, provisioning.ErrDatabaseNotFound),
		errors.Is(err, billing.ErrPaymentNotFound),
		errors.Is(err, billing.ErrDatabaseNotFound),
		errors.Is(err, billing.ErrCommissionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, provisioning.ErrEmailTaken),
		errors.Is(err, provisioning.ErrDomainTaken),
		errors.Is(err, provisioning.ErrDatabaseTaken),
		errors.Is(err, billing.ErrAlreadyCompleted):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, provisioning.ErrForbidden),
		errors.Is(err, billing.ErrForbidden):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, provisioning.ErrInvalidReference),
		errors.Is(err, provisioning.ErrNotCustomer),
		errors.Is(err, provisioning.ErrInvalidExpiryDate),
		errors.Is(err, billing.ErrInvalidStatus),
		errors.Is(err, billing.ErrInvalidPeriod),
		errors.Is(err, billing.ErrInvalidCommission):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// pageFromQuery reads page and per_page
func pageFromQuery(r *http.Request) store.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return store.Page{Page: page, PerPage: perPage}
}

func paginated[T any](items []T, p store.Page, total int) models.Paginated[T] {
	return models.NewPaginated(items, p.Number(), p.Limit(), total)
}

// dateRangeFromQuery reads date_from and date_to as YYYY-MM-DD
func dateRangeFromQuery(r *http.Request) (store.DateRange, error) {
	var dr store.DateRange
	for key, dst := range map[string]**time.Time{"date_from": &dr.From, "date_to": &dr.To} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return dr, fmt.Errorf("%s must be a date (YYYY-MM-DD)", key)
		}
		*dst = &t
	}
	return dr, nil
}

// dashboardFor is where the client should send a signed-in user
func dashboardFor(u *models.User) string {
	if u.IsStaff() {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}
