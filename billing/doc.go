// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package billing implements manual payments and referral commissions.

A payment is created pending by the database owner, or by the executive
who referred the owner. An admin then approves it, which:

 1. marks the payment completed,
 2. renews the database named in the payment's reference data, and
 3. credits the owner's referrer with one commission.

Renewal and commission failures do not undo an approval; they are
returned as warnings. A payment earns at most one commission, so approving
or completing it again never pays twice.

Commission amounts follow the referrer's settings: a percentage of the
payment rounded to cents, or a fixed amount.
*/
package billing
