// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package provisioning creates accounts and their hosting.

Registration makes a password-less customer with a trial database. Names
follow the requested domain:

	clinic.hospx.com  ->  panel database clinic_hospx_com_db
	                      local record   edusofto_clinic_hospx_com_db

The panel prefixes databases with the account name, so local records
store the prefixed form. Platform subdomains only need a database on the
panel; custom domains are also added as addon domains.

Local records are written first and are authoritative. Every control
panel failure is logged and reported back as a warning instead of
failing the operation.

Staff accounts (executive, admin) receive a generated password and a
reference code by email when they are created, promoted or moved into a
staff role.
*/
package provisioning
