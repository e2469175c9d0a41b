package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/microfeed/internal/certgen"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripperFunc) *Client {
	return New("http://example.com", &http.Client{Transport: fn, Timeout: time.Second})
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestLogin_KeepsCredentials(t *testing.T) {
	var calls []*http.Request
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		calls = append(calls, req)
		switch req.URL.Path {
		case "/api/sessions":
			return jsonResponse(http.StatusOK, `{"id":"a1","name":"Alice"}`), nil
		case "/api/feed":
			return jsonResponse(http.StatusOK, `[{"id":"p1","body":"hi"}]`), nil
		}
		return jsonResponse(http.StatusNotFound, "not found"), nil
	})

	_, err := c.Feed(context.Background(), models.Page{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	a, err := c.Login(context.Background(), "alice@example.com", "foobar")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "alice@example.com", c.Email())

	posts, err := c.Feed(context.Background(), models.Page{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	last := calls[len(calls)-1]
	user, pass, ok := last.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", user)
	assert.Equal(t, "foobar", pass)
	assert.Equal(t, "limit=5&offset=10", last.URL.RawQuery)
}

func TestLogin_Rejected(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, "invalid email/secret combination\n"), nil
	})

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid email/secret combination", apiErr.Body)
	assert.Empty(t, c.Email())
}

func TestSignup_ValidationErrors(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		return jsonResponse(http.StatusUnprocessableEntity, `{"errors":[{"field":"email","reason":"is invalid"}]}`), nil
	})

	_, err := c.Signup(context.Background(), validation.AccountInput{Email: "bad"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("email"))
}

func TestDo_NetworkError(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	})
	_, err := c.Signup(context.Background(), validation.AccountInput{})
	assert.ErrorContains(t, err, "request failed")
}

func TestDo_InvalidJSON(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "not-json"), nil
	})
	_, err := c.Login(context.Background(), "a@example.com", "foobar")
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestFollowUnfollowPostDelete(t *testing.T) {
	type call struct{ method, path, body string }
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, string(b)})
		switch {
		case r.URL.Path == "/api/sessions":
			_ = json.NewEncoder(w).Encode(models.Account{ID: "a1"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Post{ID: "p1", Body: "hello"})
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"following":true}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	ctx := context.Background()
	_, err := c.Login(ctx, "a@example.com", "foobar")
	require.NoError(t, err)

	require.NoError(t, c.Follow(ctx, "b1"))
	require.NoError(t, c.Unfollow(ctx, "b1"))
	p, err := c.Post(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	require.NoError(t, c.DeletePost(ctx, "p1"))

	require.Len(t, calls, 5)
	assert.JSONEq(t, `{"followed_id":"b1"}`, calls[1].body)
	assert.Equal(t, call{http.MethodDelete, "/api/follows/b1", ""}, calls[2])
	assert.Equal(t, call{http.MethodDelete, "/api/posts/p1", ""}, calls[4])
}

func TestNewHTTPClient_TrustsCA(t *testing.T) {
	ca, err := certgen.NewAuthority("test CA", time.Hour)
	require.NoError(t, err)
	dir := t.TempDir()
	caPath, err := certgen.WriteFile(dir, "ca.crt", ca.CertPEM(), 0o644)
	require.NoError(t, err)

	hc, err := NewHTTPClient(caPath)
	require.NoError(t, err)
	assert.NotNil(t, hc.Transport)

	plain, err := NewHTTPClient("")
	require.NoError(t, err)
	assert.Nil(t, plain.Transport)

	_, err = NewHTTPClient(filepath.Join(dir, "missing.crt"))
	assert.ErrorContains(t, err, "failed to read CA cert")

	junk := filepath.Join(dir, "junk.crt")
	require.NoError(t, os.WriteFile(junk, []byte("junk"), 0o600))
	_, err = NewHTTPClient(junk)
	assert.ErrorContains(t, err, "failed to parse CA cert")
}
