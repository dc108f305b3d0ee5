// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 15 * time.Second

var (
	// Global HTTP client pool
	httpClients sync.Map

	// Common errors
	ErrServiceNotConfigured = errors.New("service is not configured")
	ErrNilResponse          = errors.New("received nil response from server")
	ErrNonJSONResponse      = errors.New("response is not valid JSON")
)

type ServiceCore struct {
	Type        string
	DisplayName string
	Description string
	DefaultURL  string
	UserAgent   string
	timeout     time.Duration
}

// SetTimeout sets the timeout used when the context carries no deadline
func (s *ServiceCore) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// Timeout returns the effective request timeout
func (s *ServiceCore) Timeout() time.Duration {
	if s.timeout <= 0 {
		return DefaultTimeout
	}
	return s.timeout
}

// getHTTPClient returns a client with the specified timeout
func getHTTPClient(timeout time.Duration) *http.Client {
	// Use the timeout as the key
	if client, ok := httpClients.Load(timeout); ok {
		return client.(*http.Client)
	}

	// Create new client if not found
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
		Timeout: timeout,
	}

	// Store in pool
	actual, _ := httpClients.LoadOrStore(timeout, client)
	return actual.(*http.Client)
}

// JoinURL joins the base URL and an absolute path
func JoinURL(baseURL, path string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	return fmt.Sprintf("%s%s", baseURL, path)
}

// MakeRequestWithContext makes an HTTP request with the provided context and timeout
func (s *ServiceCore) MakeRequestWithContext(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if url == "" {
		log.Error().Msg("Service is not configured")
		return nil, ErrServiceNotConfigured
	}

	// a context deadline wins over the client timeout
	timeout := s.Timeout()

	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to create request")
		return nil, err
	}

	userAgent := s.UserAgent
	if userAgent == "" {
		userAgent = "animebrr/1.0"
	}

	// Set default headers
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connection", "keep-alive")

	for headerKey, headerValue := range headers {
		req.Header.Set(headerKey, headerValue)
	}

	start := time.Now()

	// Get client with appropriate timeout
	client := getHTTPClient(timeout)
	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Request failed")
		return nil, err
	}

	if resp == nil {
		log.Error().Str("url", url).Msg("Received nil response from server")
		return nil, ErrNilResponse
	}

	// Store the response time in the response header
	resp.Header.Set("X-Response-Time", time.Since(start).String())

	return resp, nil
}

// ReadBody reads and returns the response body
func (s *ServiceCore) ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil {
		return nil, ErrNilResponse
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read response body")
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		event := log.Debug().
			Int("status", resp.StatusCode).
			Str("content_type", resp.Header.Get("Content-Type"))
		if resp.Request != nil {
			event = event.Str("url", resp.Request.URL.String())
		}
		event.Msg("Service returned non-200 status")
	}

	return body, nil
}

// ReadJSON reads the body and requires it to be JSON. The status code is not
// consulted: a JSON error body is still a parsed response.
func (s *ServiceCore) ReadJSON(resp *http.Response) (json.RawMessage, error) {
	body, err := s.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("%w: status %d, body %q", ErrNonJSONResponse, resp.StatusCode, truncate(trimmed, 120))
	}

	return json.RawMessage(trimmed), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
