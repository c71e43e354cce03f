// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store holds every SQL query the application runs.

	st := store.New(conn)
	user, err := st.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// ...
	}

Queries use ? placeholders and are rebound for the connected driver, so the
same statements run on SQLite, PostgreSQL and MySQL. Dates are computed in
Go and passed as parameters; no dialect date functions are used. Monthly
and daily report grouping happens in Go for the same reason.

# Transactions

InTx runs a function against a store bound to one transaction. Methods
called on that store join the transaction:

	err := st.InTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		_, err := tx.CreateReferenceCode(ctx, code, u.ID)
		return err
	})

# Time

All timestamps are UTC and truncated to the second. Expiry dates are
stored at midnight UTC. WithClock replaces the clock, which tests use to
pin "today".

# Errors

ErrNotFound is returned when a lookup or a targeted update matches no row.
ErrDuplicate wraps unique constraint violations on every driver.
*/
package store
