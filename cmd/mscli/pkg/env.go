// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

// Env carries the shared state of one invocation: logger, work-directory
// file access, and the MS client. Commands that only touch local files
// never hit the client, so credential problems surface only when the
// Management System is actually needed.
type Env struct {
	Log   zerolog.Logger
	Files Workfiles
	Creds Credentials

	client    *client.Client
	clientErr error
}

// Client returns the MS client or the credential/construction error that
// prevented building one.
func (e *Env) Client() (*client.Client, error) {
	return e.client, e.clientErr
}

// setupEnv builds the command environment from the global flags: logging,
// work directory, credential resolution, client construction. Credential
// errors are deferred into the Env rather than failing commands that work
// offline.
func setupEnv(c *cli.Context) (*Env, error) {
	log, err := SetupLogging(c.String("log_level"))
	if err != nil {
		return nil, err
	}

	workDir := c.String("work_dir")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating work directory %s", workDir)
	}

	env := &Env{
		Log:   log,
		Files: NewWorkfiles(workDir, log),
	}

	creds, err := ResolveCredentials(
		c.String("ms_url"), c.String("ms_user"), c.String("ms_password"), workDir)
	if err != nil {
		env.clientErr = err
		return env, nil
	}
	env.Creds = creds

	trace := log.GetLevel() <= zerolog.TraceLevel
	env.client, env.clientErr = client.New(creds.URL, creds.Username, creds.Password,
		client.WithLogger(log),
		client.WithWorkDir(workDir),
		client.WithDebug(trace),
		client.WithInsecure(c.Bool("insecure")),
	)
	if env.clientErr != nil {
		return env, nil
	}

	if c.Bool("store_credentials") {
		if err := StoreCredentials(CredentialsPath(workDir), creds); err != nil {
			log.Warn().Err(err).Msg("credentials not stored")
		} else {
			log.Info().Msgf("credentials for %s stored in %s", creds.URL, credentialsFileName)
		}
	}

	log.Debug().Msgf("mscli started for %q", creds.URL)
	return env, nil
}

// TranslateError maps transport and configuration failures onto the single
// actionable line users see. Everything else passes through unchanged.
func TranslateError(err error) string {
	var (
		dnsErr    *net.DNSError
		urlErr    *url.Error
		ambiguous *AmbiguousCredentialsFileError
		status    *client.StatusError
	)
	switch {
	case errors.As(err, &dnsErr):
		return "the URL of the Management System could not be resolved"
	case errors.Is(err, client.ErrNotManagementSystem):
		return "the URL either does not exist or it does not point to a Management System"
	case errors.Is(err, client.ErrInvalidCredentials):
		return "failed to authorize, check your credentials"
	case errors.Is(err, ErrMissingConfiguration), errors.As(err, &ambiguous):
		return err.Error()
	case errors.As(err, &status):
		return status.Error()
	case errors.As(err, &urlErr):
		return fmt.Sprintf("failed to connect to the Management System: %v", urlErr.Err)
	default:
		return err.Error()
	}
}

// logLevelArg extracts the log level from a raw argument list, falling
// back to MSCLI_LOG_LEVEL and then "info". ReportError runs after the cli
// app has already failed, so the parsed flag set is no longer available.
func logLevelArg(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--log_level" || arg == "-l" || arg == "--l":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--log_level="):
			return strings.TrimPrefix(arg, "--log_level=")
		case strings.HasPrefix(arg, "-l="):
			return strings.TrimPrefix(arg, "-l=")
		}
	}
	if level := os.Getenv("MSCLI_LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}

// ReportError prints a failed invocation's error in translated form, at
// the log level the invocation asked for. The full chain is added at debug
// level and below.
func ReportError(err error, args []string) {
	log, lerr := SetupLogging(logLevelArg(args))
	if lerr != nil {
		log, _ = SetupLogging("info")
	}

	log.Error().Msg(TranslateError(err))
	if log.GetLevel() <= zerolog.DebugLevel {
		log.Debug().Msgf("%+v", err)
	}
}
