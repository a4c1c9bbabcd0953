// shared/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPError is returned for responses with a status of 400 or above.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
	Method     string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error %d %s from %s %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP error %d %s from %s %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL)
}

// Errors wrapped around an *HTTPError for the statuses the board API uses.
// Use errors.Is for checking and errors.As (or GetHTTPStatusCode) for details.
var (
	ErrNotFound      = fmt.Errorf("resource not found")
	ErrConflict      = fmt.Errorf("resource conflict")
	ErrBadRequest    = fmt.Errorf("bad request")
	ErrUnauthorized  = fmt.Errorf("unauthorized")
	ErrForbidden     = fmt.Errorf("forbidden")
	ErrTooManyReqs   = fmt.Errorf("too many requests")
	ErrInternalError = fmt.Errorf("internal server error")
)

var statusErrors = map[int]error{
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusTooManyRequests:     ErrTooManyReqs,
	http.StatusInternalServerError: ErrInternalError,
	http.StatusBadGateway:          ErrInternalError,
	http.StatusServiceUnavailable:  ErrInternalError,
	http.StatusGatewayTimeout:      ErrInternalError,
}

// NewDefaultHTTPClient returns an http.Client with connection and overall
// request timeouts suitable for talking to the board service.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Client is a small JSON client for the board REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		log.Println("WARN: NewClient called with nil httpClient, using NewDefaultHTTPClient")
		httpClient = NewDefaultHTTPClient()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithToken returns a copy of the client that sends the given bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body for %s %s: %w", method, url, err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request for %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s aborted: %w", method, url, ctxErr)
		}
		return fmt.Errorf("failed to send %s request to %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readHTTPError(resp, url, method)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response from %s: %w", method, url, err)
	}
	return nil
}

// readHTTPError builds an *HTTPError from the JSONErrorResponse body the
// server writes, falling back to a short raw body.
func readHTTPError(resp *http.Response, url, method string) error {
	httpErr := &HTTPError{StatusCode: resp.StatusCode, URL: url, Method: method}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(bodyBytes) > 0 {
		var errResp JSONErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Message != "" {
			httpErr.Message = errResp.Message
		} else if len(bodyBytes) < 500 {
			httpErr.Message = strings.TrimSpace(string(bodyBytes))
		}
	}

	if sentinel, ok := statusErrors[resp.StatusCode]; ok {
		return fmt.Errorf("%w: %w", sentinel, httpErr)
	}
	return httpErr
}

func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.doRequest(ctx, http.MethodPost, path, body, result)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.doRequest(ctx, http.MethodPatch, path, body, result)
}

// GetHTTPStatusCode extracts the status code from an HTTPError if present.
func GetHTTPStatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
