// Package client is a thin HTTP client for the microfeed JSON API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

// ErrNoCredentials is returned by calls that need Login first.
var ErrNoCredentials = errors.New("not logged in")

// APIError carries a non-success response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.Status, e.Body)
}

// Client talks to one server. Credentials set by Login are sent as HTTP
// Basic auth on every protected call.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	email  string
	secret string
}

// New returns a Client for baseURL. A nil httpClient uses a 10s timeout client.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

// NewHTTPClient returns an http.Client whose only trusted root is the PEM
// CA at caFile. An empty caFile yields a plain client.
func NewHTTPClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{Timeout: 10 * time.Second}, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12},
	}
	return &http.Client{Transport: transport, Timeout: 10 * time.Second}, nil
}

// Email returns the address set by the last successful Login.
func (c *Client) Email() string {
	return c.email
}

// Signup creates an account. Field-level problems come back as validation.Errors.
func (c *Client) Signup(ctx context.Context, in validation.AccountInput) (*models.Account, error) {
	var a models.Account
	if err := c.do(ctx, http.MethodPost, "/api/accounts", in, false, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Login checks the pair with the server and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, secret string) (*models.Account, error) {
	var a models.Account
	body := map[string]string{"email": email, "secret": secret}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, false, &a); err != nil {
		return nil, err
	}
	c.email, c.secret = email, secret
	return &a, nil
}

// Post publishes body as the logged in account.
func (c *Client) Post(ctx context.Context, body string) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", map[string]string{"body": body}, true, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes one of the logged in account's posts.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, true, nil)
}

// Follow starts following accountID.
func (c *Client) Follow(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodPost, "/api/follows", map[string]string{"followed_id": accountID}, true, nil)
}

// Unfollow stops following accountID.
func (c *Client) Unfollow(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, "/api/follows/"+url.PathEscape(accountID), nil, true, nil)
}

// Feed fetches one page of the logged in account's feed.
func (c *Client) Feed(ctx context.Context, page models.Page) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/feed"+pageQuery(page), nil, true, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Accounts lists one page of accounts.
func (c *Client) Accounts(ctx context.Context, page models.Page) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.do(ctx, http.MethodGet, "/api/accounts"+pageQuery(page), nil, true, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func pageQuery(page models.Page) string {
	q := url.Values{}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset > 0 {
		q.Set("offset", strconv.Itoa(page.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, in any, auth bool, out any) error {
	if auth && c.email == "" {
		return ErrNoCredentials
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.SetBasicAuth(c.email, c.secret)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var payload struct {
			Errors validation.Errors `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && len(payload.Errors) > 0 {
			return payload.Errors
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
