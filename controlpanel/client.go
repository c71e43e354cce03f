// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controlpanel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Rajin-257/Hospx-Saas/cliparse"
)

// ErrDisabled is returned by every call when no panel host is configured
var ErrDisabled = errors.New("control panel not configured")

// APIError is a reply that carried an error, or no recognizable result
type APIError struct {
	Act     string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("webuzo %s: %s", e.Act, e.Message)
}

// Privileges granted to the tenant database user
var privileges = []string{
	"SELECT", "CREATE", "INSERT", "UPDATE", "ALTER", "DELETE", "INDEX",
	"CREATE_TEMPORARY_TABLES", "EXECUTE", "DROP", "LOCK_TABLES", "REFERENCES",
	"CREATE_ROUTINE", "ALTER_ROUTINE", "EVENT", "CREATE_VIEW", "SHOW_VIEW", "TRIGGER",
}

// Client talks to the Webuzo JSON API
type Client struct {
	baseURL  *url.URL
	dbPrefix string
	dbUser   string
	http     *retryablehttp.Client
}

// New builds a client from configuration. A config without a host yields a
// client whose calls all return ErrDisabled.
func New(cfg cliparse.ControlPanelConfig) *Client {
	c := &Client{dbPrefix: cfg.DBPrefix, dbUser: cfg.DBUser}
	if cfg.Host == "" {
		return c
	}

	c.baseURL = &url.URL{
		Scheme: "https",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/index.php",
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = slog.Default()
	rc.HTTPClient.Timeout = timeout
	// Panels ship self-signed certificates
	rc.HTTPClient.Transport = &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	c.http = rc
	return c
}

// NewWithHTTPClient points the client at baseURL, for tests and proxies
func NewWithHTTPClient(baseURL string, httpClient *http.Client, dbPrefix, dbUser string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid control panel URL: %w", err)
	}
	if u.Path == "" {
		u.Path = "/index.php"
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.HTTPClient = httpClient
	return &Client{baseURL: u, dbPrefix: dbPrefix, dbUser: dbUser, http: rc}, nil
}

// Enabled reports whether the client has a panel to talk to
func (c *Client) Enabled() bool {
	return c.baseURL != nil
}

// DBPrefix is prepended by the panel to every database name
func (c *Client) DBPrefix() string {
	return c.dbPrefix
}

type reply struct {
	Done  json.RawMessage `json:"done"`
	Error json.RawMessage `json:"error"`
}

// call posts form to act and returns the done message
func (c *Client) call(ctx context.Context, act string, form url.Values) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	u := *c.baseURL
	u.RawQuery = url.Values{"api": {"json"}, "act": {act}}.Encode()

	method := http.MethodGet
	var body interface{}
	if len(form) > 0 {
		method = http.MethodPost
		body = form.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return "", fmt.Errorf("failed to build %s request: %w", act, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("webuzo %s request failed: %w", act, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read %s reply: %w", act, err)
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &APIError{Act: act, Message: "invalid JSON reply: " + truncate(string(raw), 200)}
	}
	if len(r.Done) > 0 && string(r.Done) != "null" && string(r.Done) != "false" {
		return doneMessage(r.Done), nil
	}
	if len(r.Error) > 0 && string(r.Error) != "null" {
		return "", &APIError{Act: act, Message: errorMessage(r.Error)}
	}
	return "", &APIError{Act: act, Message: "unrecognized reply"}
}

// doneMessage extracts done.msg when present
func doneMessage(raw json.RawMessage) string {
	var d struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &d); err == nil {
		return d.Msg
	}
	return ""
}

// errorMessage flattens the error member, which is a string, a list or a map
func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, m[k])
		}
		return strings.Join(msgs, "; ")
	}
	return truncate(string(raw), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AddAddonDomain attaches domain to the account's public_html
func (c *Client) AddAddonDomain(ctx context.Context, domain string) (string, error) {
	return c.call(ctx, "domainadd", url.Values{
		"add":          {"1"},
		"domain_type":  {"addon"},
		"domain":       {domain},
		"domainpath":   {"public_html"},
		"wildcard":     {"0"},
		"issue_lecert": {"1"},
	})
}

// DeleteDomain removes one or more domains
func (c *Client) DeleteDomain(ctx context.Context, domains ...string) (string, error) {
	lower := make([]string, len(domains))
	for i, d := range domains {
		lower[i] = strings.ToLower(d)
	}
	return c.call(ctx, "domainmanage", url.Values{"delete": {strings.Join(lower, ", ")}})
}

// CreateDatabase creates name; the panel prefixes it with the account name
func (c *Client) CreateDatabase(ctx context.Context, name string) (string, error) {
	return c.call(ctx, "dbmanage", url.Values{"submitdb": {"1"}, "db": {name}})
}

// AddDatabaseUser grants user every privilege on the prefixed database
func (c *Client) AddDatabaseUser(ctx context.Context, name, user string) (string, error) {
	form := url.Values{
		"submitpri": {"1"},
		"dbname":    {c.dbPrefix + name},
		"dbuser":    {user},
		"host":      {"localhost"},
	}
	for _, p := range privileges {
		form.Set("pri["+p+"]", "Y")
	}
	return c.call(ctx, "dbmanage", form)
}

// DeleteDatabase drops one or more databases by full name
func (c *Client) DeleteDatabase(ctx context.Context, names ...string) (string, error) {
	return c.call(ctx, "dbmanage", url.Values{"delete_db": {strings.Join(names, ", ")}})
}

// SetupResult records each step of CreateCompleteSetup. A nil error means
// the step succeeded or was not reached.
type SetupResult struct {
	DomainErr   error
	DatabaseErr error
	UserErr     error
}

// CreateCompleteSetup adds the domain, creates the database and grants the
// tenant user. A failed domain step is recorded and setup continues; a
// failed database step ends it and is returned as the error.
func (c *Client) CreateCompleteSetup(ctx context.Context, domain, database string) (SetupResult, error) {
	var res SetupResult
	if !c.Enabled() {
		return res, ErrDisabled
	}

	if _, err := c.AddAddonDomain(ctx, domain); err != nil {
		slog.Warn("addon domain failed, continuing with database", "domain", domain, "error", err)
		res.DomainErr = err
	}

	if _, err := c.CreateDatabase(ctx, database); err != nil {
		res.DatabaseErr = err
		return res, fmt.Errorf("failed to create database: %w", err)
	}

	if _, err := c.AddDatabaseUser(ctx, database, c.dbUser); err != nil {
		res.UserErr = err
	}
	return res, nil
}

// TestConnection makes a read-only call to verify host and credentials
func (c *Client) TestConnection(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	u := *c.baseURL
	u.RawQuery = url.Values{"api": {"json"}, "act": {"domainadd"}}.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webuzo connection failed: %w", err)
	}
	defer resp.Body.Close()

	var v map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return &APIError{Act: "domainadd", Message: "invalid JSON reply"}
	}
	return nil
}
