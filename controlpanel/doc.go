// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package controlpanel is a client for the Webuzo hosting panel JSON API.

Every call goes to /index.php?api=json&act=ACTION with basic credentials in
the URL. Calls with parameters are form POSTs; the rest are GETs. A reply
with a "done" member is a success. Anything else is returned as an
*APIError carrying the panel's error text.

A client built from a config with no host is disabled and returns
ErrDisabled, which lets the rest of the application run without a panel.
*/
package controlpanel
