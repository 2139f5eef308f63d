// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidCredentials indicates the Management System rejected the login identity or secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotManagementSystem indicates the host answered but does not expose the login endpoint.
	ErrNotManagementSystem = errors.New("host is not a Management System")
	// ErrSessionExpired indicates the cached session was rejected and re-login also failed.
	ErrSessionExpired = errors.New("session expired")
	// ErrNodeOffline indicates the node cannot accept the command right now.
	ErrNodeOffline = errors.New("node is offline")
)

// StatusError is returned for any reply outside the 2xx range. Message holds
// the server-provided explanation when the body carried one.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Management System returned %s: %s", e.Status, e.Message)
	}
	if e.Body != "" && len(e.Body) < 200 {
		return fmt.Sprintf("Management System returned %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("Management System returned %s", e.Status)
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	if stderrors.As(err, &se) {
		return se.StatusCode == code
	}
	return false
}
