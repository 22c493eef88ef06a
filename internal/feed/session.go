// Package feed holds the HTTP clients for the external data feeds: the
// authenticated Space-Track GP feed and the USGS earthquake feed.
package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	skysync "github.com/skywatch-io/skysync"
)

// SessionCache holds the Space-Track session cookie for the lifetime of
// the process. The first acquisition performs the login exchange;
// concurrent first acquisitions coalesce into a single login call. There
// is no expiry check: a stale cookie is replaced only after Invalidate.
type SessionCache struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	cookie string
}

// NewSessionCache creates a session cache for the given credentials.
func NewSessionCache(baseURL, username, password string, httpClient *http.Client, logger *slog.Logger) *SessionCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCache{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
		logger:     logger.With("component", "session"),
	}
}

// Cookie returns the cached session cookie, logging in first if none is
// cached. A rejected login surfaces *skysync.AuthError carrying the
// feed's response body.
func (s *SessionCache) Cookie(ctx context.Context) (string, error) {
	// The lock is held across the login exchange on purpose: concurrent
	// first callers must trigger exactly one login.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie != "" {
		return s.cookie, nil
	}

	cookie, err := s.login(ctx)
	if err != nil {
		return "", err
	}
	s.cookie = cookie
	return cookie, nil
}

// Invalidate clears the cached cookie so the next acquisition logs in
// again. Called by the feed client on an authentication-rejection
// response.
func (s *SessionCache) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookie = ""
}

func (s *SessionCache) login(ctx context.Context) (string, error) {
	s.logger.Info("logging in", "base_url", s.baseURL)

	form := url.Values{}
	form.Set("identity", s.username)
	form.Set("password", s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/ajaxauth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("login rejected", "status", resp.StatusCode)
		return "", &skysync.AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	pairs := make([]string, 0, 2)
	for _, c := range resp.Cookies() {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	if len(pairs) == 0 {
		return "", &skysync.AuthError{StatusCode: resp.StatusCode, Body: "login response carried no session cookie"}
	}

	return strings.Join(pairs, "; "), nil
}
