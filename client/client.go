// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package client implements the Management System REST API for the CLI.
// It owns login, session caching, retries and every wire-level concern so
// that command code never sees HTTP.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	sessionHeader   = "sessionid"
	requestIDHeader = "ms-request-id"

	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 10 // requests per second
	loginAttempts    = 3
	loginRetryDelay  = 500 * time.Millisecond
)

// Client talks to one Management System on behalf of one user.
type Client struct {
	host     string
	username string
	password string

	rest     *resty.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
	sessions *sessionStore
	token    string

	timeout  time.Duration
	insecure bool
	debug    bool
	workDir  string
}

// Option adjusts client construction.
type Option func(*Client)

// WithLogger sets the structured logger used for client events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithWorkDir sets the directory holding the session cache.
func WithWorkDir(dir string) Option {
	return func(c *Client) { c.workDir = dir }
}

// WithDebug dumps requests and responses through the transport logger.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.debug = debug }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithInsecure disables TLS certificate verification.
func WithInsecure(insecure bool) Option {
	return func(c *Client) { c.insecure = insecure }
}

// WithRateLimit overrides the request rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)) }
}

// New builds a client for the Management System at host. The scheme is
// stripped from host; the client always dials https. A cached session for
// the same host and username is reused when it has not expired, otherwise
// the first request triggers a login.
func New(host, username, password string, opts ...Option) (*Client, error) {
	host = TrimScheme(host)
	if host == "" {
		return nil, errors.New("management system url is empty")
	}

	c := &Client{
		host:     host,
		username: username,
		password: password,
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
		log:      zerolog.Nop(),
		timeout:  defaultTimeout,
		workDir:  ".",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sessions = newSessionStore(c.workDir)

	c.rest = resty.New().
		SetBaseURL("https://" + c.host).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetLogger(newTransportLogger(c.debug)).
		SetDebug(c.debug)
	if c.insecure {
		c.rest.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}
	limiter := c.limiter
	c.rest.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return limiter.Wait(r.Context())
	})

	cs, err := c.sessions.Load(c.host)
	if err != nil {
		c.log.Warn().Err(err).Msg("ignoring unreadable session cache")
	} else if cs != nil && cs.Username == c.username && tokenUsable(cs.Token) {
		c.token = cs.Token
		c.log.Debug().Str("host", c.host).Msg("reusing cached session")
	}

	return c, nil
}

// Host returns the Management System host the client dials, without scheme.
func (c *Client) Host() string { return c.host }

// Username returns the identity the client logs in with.
func (c *Client) Username() string { return c.username }

// TrimScheme strips an http/https prefix and trailing slashes from a
// Management System URL.
func TrimScheme(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimRight(s, "/")
}

// newTransportLogger returns the logger handed to resty for wire-level
// output. Kept on logrus so transport dumps stay distinguishable from the
// structured client log.
func newTransportLogger(debug bool) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return l.WithField("component", "http")
}

type loginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

type loginResponse struct {
	SessionID string `json:"sessionId"`
}

// login obtains a fresh session token. Transport-level failures are retried,
// definitive answers from the server are not.
func (c *Client) login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return errors.Wrap(ErrInvalidCredentials, "username or password not set")
	}
	var out loginResponse
	err := retry.Do(
		func() error {
			res, err := c.rest.R().
				SetContext(ctx).
				SetHeader(requestIDHeader, uuid.NewString()).
				SetBody(loginRequest{Identity: c.username, Secret: c.password}).
				SetResult(&out).
				Post("/auth/login")
			if err != nil {
				return errors.Wrap(err, "login request")
			}
			if res.IsError() {
				return statusError(res)
			}
			return nil
		},
		retry.Attempts(loginAttempts),
		retry.Delay(loginRetryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var se *StatusError
			return !stderrors.As(err, &se)
		}),
	)
	if err != nil {
		var se *StatusError
		if stderrors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return ErrInvalidCredentials
			case http.StatusNotFound:
				return ErrNotManagementSystem
			}
		}
		return err
	}
	if out.SessionID == "" {
		return errors.New("login reply carried no session id")
	}

	c.token = out.SessionID
	c.log.Debug().Str("host", c.host).Str("user", c.username).Msg("logged in")
	if err := c.sessions.Save(&cachedSession{
		Host:       c.host,
		Username:   c.username,
		Token:      c.token,
		ObtainedAt: time.Now(),
	}); err != nil {
		c.log.Warn().Err(err).Msg("could not persist session cache")
	}
	return nil
}

// Logout terminates the server-side session and drops the local cache.
// Without a live or cached session it only clears the cache.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		cs, err := c.sessions.Load(c.host)
		if err == nil && cs != nil && cs.Username == c.username {
			c.token = cs.Token
		}
	}
	if c.token != "" {
		res, err := c.execute(ctx, http.MethodPost, "/auth/logout")
		if err != nil {
			return err
		}
		if res.IsError() && res.StatusCode() != http.StatusUnauthorized {
			return statusError(res)
		}
		c.log.Debug().Str("host", c.host).Msg("logged out")
	}
	c.token = ""
	return c.sessions.Clear(c.host)
}

// requestOpt mutates one outgoing request.
type requestOpt func(*resty.Request)

func withBody(body any) requestOpt {
	return func(r *resty.Request) { r.SetBody(body) }
}

func withResult(out any) requestOpt {
	return func(r *resty.Request) { r.SetResult(out) }
}

func withQuery(key, value string) requestOpt {
	return func(r *resty.Request) { r.SetQueryParam(key, value) }
}

func withHeader(key, value string) requestOpt {
	return func(r *resty.Request) { r.SetHeader(key, value) }
}

func withOutput(path string) requestOpt {
	return func(r *resty.Request) { r.SetOutput(path) }
}

func withFile(field, name string, data []byte) requestOpt {
	return func(r *resty.Request) { r.SetFileReader(field, name, bytes.NewReader(data)) }
}

func withFormField(key, value string) requestOpt {
	return func(r *resty.Request) { r.SetMultipartField(key, "", "application/json", strings.NewReader(value)) }
}

func withUploadFile(field, path string) requestOpt {
	return func(r *resty.Request) { r.SetFile(field, path) }
}

// do runs one authenticated request. A session the server rejects is
// invalidated, renewed by a fresh login and the request replayed once.
func (c *Client) do(ctx context.Context, method, path string, opts ...requestOpt) (*resty.Response, error) {
	if !tokenUsable(c.token) {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	res, err := c.execute(ctx, method, path, opts...)
	if err != nil {
		return nil, err
	}

	if res.StatusCode() == http.StatusUnauthorized {
		c.log.Debug().Str("path", path).Msg("session rejected, logging in again")
		c.token = ""
		if err := c.sessions.Clear(c.host); err != nil {
			c.log.Warn().Err(err).Msg("could not clear session cache")
		}
		if err := c.login(ctx); err != nil {
			return nil, err
		}
		res, err = c.execute(ctx, method, path, opts...)
		if err != nil {
			return nil, err
		}
		if res.StatusCode() == http.StatusUnauthorized {
			return nil, ErrSessionExpired
		}
	}

	if res.IsError() {
		return nil, statusError(res)
	}
	return res, nil
}

func (c *Client) execute(ctx context.Context, method, path string, opts ...requestOpt) (*resty.Response, error) {
	req := c.rest.R().
		SetContext(ctx).
		SetHeader(sessionHeader, c.token).
		SetHeader(requestIDHeader, uuid.NewString())
	for _, opt := range opts {
		opt(req)
	}
	res, err := req.Execute(method, path)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	return res, nil
}

func statusError(res *resty.Response) *StatusError {
	se := &StatusError{
		StatusCode: res.StatusCode(),
		Status:     res.Status(),
		Body:       string(res.Body()),
	}
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(res.Body(), &errResp) == nil {
		if errResp.Message != "" {
			se.Message = errResp.Message
		} else if errResp.Error != "" {
			se.Message = errResp.Error
		}
	}
	return se
}
