// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controlpanel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajin-257/Hospx-Saas/cliparse"
)

type call struct {
	Method string
	Act    string
	Form   url.Values
}

// fakePanel answers each act with a canned reply and records the calls
type fakePanel struct {
	mu      sync.Mutex
	calls   []call
	replies map[string]string
}

func (f *fakePanel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	act := r.URL.Query().Get("act")

	f.mu.Lock()
	f.calls = append(f.calls, call{Method: r.Method, Act: act, Form: r.PostForm})
	reply, ok := f.replies[act]
	f.mu.Unlock()

	if !ok {
		reply = `{"done":{"msg":"ok"}}`
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, reply)
}

func (f *fakePanel) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newTestClient(t *testing.T, replies map[string]string) (*Client, *fakePanel) {
	t.Helper()
	panel := &fakePanel{replies: replies}
	srv := httptest.NewTLSServer(panel)
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(srv.URL, srv.Client(), "acct_", "acct_tenant")
	require.NoError(t, err)
	return c, panel
}

func TestDisabledClient(t *testing.T) {
	c := New(cliparse.ControlPanelConfig{})
	assert.False(t, c.Enabled())

	_, err := c.CreateDatabase(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.TestConnection(context.Background()), ErrDisabled)
}

func TestAddAddonDomain(t *testing.T) {
	c, panel := newTestClient(t, map[string]string{
		"domainadd": `{"done":{"msg":"Domain added"}}`,
	})

	msg, err := c.AddAddonDomain(context.Background(), "clinic.hospx.com")
	require.NoError(t, err)
	assert.Equal(t, "Domain added", msg)

	calls := panel.Calls()
	require.Len(t, calls, 1)
	got := calls[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "domainadd", got.Act)
	assert.Equal(t, "clinic.hospx.com", got.Form.Get("domain"))
	assert.Equal(t, "addon", got.Form.Get("domain_type"))
	assert.Equal(t, "public_html", got.Form.Get("domainpath"))
	assert.Equal(t, "1", got.Form.Get("issue_lecert"))
}

func TestErrorReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"string", `{"error":"Database exists"}`, "Database exists"},
		{"list", `{"error":["first","second"]}`, "first; second"},
		{"map", `{"error":{"b":"two","a":"one"}}`, "one; two"},
		{"no result", `{"title":"Panel"}`, "unrecognized reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, map[string]string{"dbmanage": tt.reply})

			_, err := c.CreateDatabase(context.Background(), "clinic_db")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, "dbmanage", apiErr.Act)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{"dbmanage": `<html>login</html>`})

	_, err := c.DeleteDatabase(context.Background(), "acct_a", "acct_b")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "invalid JSON")
}

func TestAddDatabaseUser_GrantsPrivileges(t *testing.T) {
	c, panel := newTestClient(t, nil)

	_, err := c.AddDatabaseUser(context.Background(), "clinic_db", "acct_tenant")
	require.NoError(t, err)

	form := panel.Calls()[0].Form
	assert.Equal(t, "acct_clinic_db", form.Get("dbname"))
	assert.Equal(t, "acct_tenant", form.Get("dbuser"))
	assert.Equal(t, "localhost", form.Get("host"))
	for _, p := range privileges {
		assert.Equal(t, "Y", form.Get("pri["+p+"]"), p)
	}
}

func TestDeleteDomain_JoinsLowercased(t *testing.T) {
	c, panel := newTestClient(t, nil)

	_, err := c.DeleteDomain(context.Background(), "A.hospx.com", "b.hospx.com")
	require.NoError(t, err)
	assert.Equal(t, "a.hospx.com, b.hospx.com", panel.Calls()[0].Form.Get("delete"))
}

func TestCreateCompleteSetup(t *testing.T) {
	tests := []struct {
		name       string
		replies    map[string]string
		wantErr    bool
		wantCalls  int
		domainFail bool
	}{
		{
			name:      "all steps succeed",
			wantCalls: 3,
		},
		{
			name:       "domain failure continues",
			replies:    map[string]string{"domainadd": `{"error":"Domain taken"}`},
			wantCalls:  3,
			domainFail: true,
		},
		{
			name:      "database failure stops",
			replies:   map[string]string{"dbmanage": `{"error":"quota reached"}`},
			wantErr:   true,
			wantCalls: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, panel := newTestClient(t, tt.replies)

			res, err := c.CreateCompleteSetup(context.Background(), "clinic.hospx.com", "clinic_db")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to create database")
				assert.NotNil(t, res.DatabaseErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.domainFail, res.DomainErr != nil)
			assert.Len(t, panel.Calls(), tt.wantCalls)
		})
	}
}

func TestTestConnection(t *testing.T) {
	c, panel := newTestClient(t, map[string]string{"domainadd": `{"title":"Add Domain"}`})

	require.NoError(t, c.TestConnection(context.Background()))
	calls := panel.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "domainadd", calls[0].Act)
}
