// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential and token utilities.

# Passwords

Passwords are hashed with bcrypt at cost 10:

	hash, err := auth.HashPassword(plain)
	ok := auth.CheckPassword(plain, hash)

Executives and admins created without a password get a generated one:

	pw, err := auth.GeneratePassword(auth.DefaultPasswordLength)

# Login Rules

Authenticate refuses customer accounts (role "user") and any account without
a password hash with ErrPendingApproval. Those accounts exist only to own
hosting; an administrator promotes them before they can sign in.

# Reference Codes

	code, err := auth.GenerateReferenceCode() // REF-7Q2KX9AB

# IDs and Tokens

Records use UUIDv4 strings (NewID). Session cookies carry 256-bit URL-safe
tokens (GenerateToken).
*/
package auth
