// Package proxmox is a thin client for the Proxmox VE REST API. Every
// operation is a single request against an authenticated Session; results
// are transient snapshots of server state and nothing is cached or retried.
package proxmox

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	apiPort        = 8006
	basePath       = "/api2/json"
	defaultTimeout = 30 * time.Second
)

// Session is an authenticated API context. It is immutable once returned by
// Connect and safe to share across calls; each call opens its own request.
type Session struct {
	BaseURL string
	Host    string

	authHeader string
	httpClient *http.Client
}

type config struct {
	timeout    time.Duration
	tlsVerify  bool
	httpClient *http.Client
}

// Option adjusts how Connect builds the underlying HTTP client.
type Option func(*config)

// WithTimeout sets the per-request timeout. The default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithTLSVerify enables certificate chain validation. Validation is disabled
// by default because Proxmox nodes commonly serve self-signed certificates;
// callers whose cluster presents a trusted chain should turn it on.
func WithTLSVerify(verify bool) Option {
	return func(c *config) { c.tlsVerify = verify }
}

// WithHTTPClient replaces the HTTP client entirely. Timeout and TLS options
// are ignored when this is set.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// Connect builds a Session for the given host and API token and validates it
// with a GET /version probe before returning. A failed probe, whether a
// transport error or a non-2xx status, yields an AuthError and no Session.
func Connect(host, tokenID, secret string, opts ...Option) (*Session, error) {
	cfg := config{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := cfg.httpClient
	if client == nil {
		client = &http.Client{
			Timeout: cfg.timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.tlsVerify},
			},
		}
	}

	s := &Session{
		BaseURL:    fmt.Sprintf("https://%s:%d%s", host, apiPort, basePath),
		Host:       host,
		authHeader: fmt.Sprintf("PVEAPIToken %s=%s", tokenID, secret),
		httpClient: client,
	}

	resp, err := s.do(http.MethodGet, "/version", nil)
	if err != nil {
		return nil, &AuthError{Host: host, Err: err}
	}
	resp.Body.Close()

	return s, nil
}

// do performs a single authenticated request. The caller owns the response
// body on success.
func (s *Session) do(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", s.authHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Host: s.Host, Endpoint: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &RequestError{
			Host:       s.Host,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(excerpt))),
		}
	}

	return resp, nil
}

// decode unwraps the {"data": ...} envelope into out. A missing or null
// data field is an error, never a silent zero value.
func (s *Session) decode(resp *http.Response, path string, out any) error {
	defer resp.Body.Close()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &RequestError{Host: s.Host, Endpoint: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &RequestError{Host: s.Host, Endpoint: path, Err: errors.New("response has no data field")}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &RequestError{Host: s.Host, Endpoint: path, Err: fmt.Errorf("failed to unmarshal data: %w", err)}
	}
	return nil
}

func (s *Session) get(path string, out any) error {
	resp, err := s.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return s.decode(resp, path, out)
}

func (s *Session) post(path string, body, out any) error {
	resp, err := s.do(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return s.decode(resp, path, out)
}

func (s *Session) delete(path string, out any) error {
	resp, err := s.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return s.decode(resp, path, out)
}
