// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const regexPrefix = "regex:"

// Filter matches string properties against a user-supplied expression.
// An empty expression matches everything, a "regex:" prefix switches from
// exact equality to unanchored regular-expression search.
type Filter struct {
	raw string
	re  *regexp.Regexp
}

// NewFilter compiles a filter expression.
func NewFilter(raw string) (Filter, error) {
	if strings.HasPrefix(raw, regexPrefix) {
		re, err := regexp.Compile(strings.TrimPrefix(raw, regexPrefix))
		if err != nil {
			return Filter{}, errors.Wrapf(err, "invalid filter %q", raw)
		}
		return Filter{raw: raw, re: re}, nil
	}
	return Filter{raw: raw}, nil
}

// Match reports whether value passes the filter.
func (f Filter) Match(value string) bool {
	switch {
	case f.raw == "":
		return true
	case f.re != nil:
		return f.re.MatchString(value)
	default:
		return f.raw == value
	}
}

// IsSet reports whether the filter carries an expression.
func (f Filter) IsSet() bool { return f.raw != "" }

// ParseSize converts a size like "4GB", "100MB", "16KB" or "512B" into
// bytes. Multipliers are 1024-based and the numeric part may be fractional.
func ParseSize(s string) (int64, error) {
	var multiplier float64
	var number string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier, number = 1024*1024*1024, strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier, number = 1024*1024, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier, number = 1024, strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier, number = 1, strings.TrimSuffix(s, "B")
	default:
		return 0, errors.Errorf("invalid size %q, must end with one of GB, MB, KB, B", s)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return 0, errors.Errorf("invalid size %q, must end with one of GB, MB, KB, B", s)
	}
	return int64(value * multiplier), nil
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q, expected format YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatSize renders a byte count the way version listings do, switching
// units once the value exceeds ten of them.
func FormatSize(size int64) string {
	switch {
	case size > 10*1024*1024*1024:
		return strconv.FormatFloat(float64(size)/(1024*1024*1024), 'f', 2, 64) + "GB"
	case size > 10*1024*1024:
		return strconv.FormatFloat(float64(size)/(1024*1024), 'f', 2, 64) + "MB"
	case size > 10*1024:
		return strconv.FormatFloat(float64(size)/1024, 'f', 2, 64) + "KB"
	default:
		return strconv.FormatInt(size, 10) + "B"
	}
}
