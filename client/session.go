// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const expiryHeadroom = 30 * time.Second

// cachedSession is what survives between invocations so that every command
// does not cost a fresh login.
type cachedSession struct {
	Host       string    `json:"host"`
	Username   string    `json:"username"`
	Token      string    `json:"token"`
	ObtainedAt time.Time `json:"obtainedAt"`
}

type sessionStore struct {
	dir string
}

func newSessionStore(workDir string) *sessionStore {
	return &sessionStore{dir: filepath.Join(workDir, ".mscli")}
}

func (s *sessionStore) path(host string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(host)
	return filepath.Join(s.dir, "session_"+safe+".json")
}

// Load returns the cached session for host, or nil when none exists.
func (s *sessionStore) Load(host string) (*cachedSession, error) {
	data, err := os.ReadFile(s.path(host))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading session cache for %s", host)
	}
	var cs cachedSession
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, errors.Wrapf(err, "parsing session cache for %s", host)
	}
	return &cs, nil
}

func (s *sessionStore) Save(cs *cachedSession) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Wrap(err, "creating session cache directory")
	}
	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session cache")
	}
	return os.WriteFile(s.path(cs.Host), data, 0o600)
}

func (s *sessionStore) Clear(host string) error {
	if err := os.Remove(s.path(host)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing session cache for %s", host)
	}
	return nil
}

// tokenUsable reports whether a cached token can still be presented.
// Tokens that are JWTs are checked against their exp claim with 30s headroom;
// anything else carries no expiry and is used optimistically.
func tokenUsable(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().Add(expiryHeadroom).Before(exp.Time)
}
