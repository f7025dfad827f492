// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a failure of the relay control plane.
// A Kind is itself an error so callers can match with errors.Is:
//
//	if errors.Is(err, errors.PidCorrupt) { ... }
type Kind string

const (
	// ConfigIO means the config file could not be read.
	ConfigIO Kind = "config_io"
	// ConfigDecode means the config file or flags could not be decoded or validated.
	ConfigDecode Kind = "config_decode"
	// PermissionDenied means the caller lacks the privilege required for daemon control.
	PermissionDenied Kind = "permission_denied"
	// PidCorrupt means the pid record exists but does not hold a valid pid.
	PidCorrupt Kind = "pid_corrupt"
	// ProcessSignalFailed means a signal could not be delivered for a reason
	// other than the process being gone.
	ProcessSignalFailed Kind = "process_signal_failed"
	// DaemonizeFailed means the detach into a background process failed.
	DaemonizeFailed Kind = "daemonize_failed"
	// FileSystemError means a support file could not be created or written.
	FileSystemError Kind = "filesystem_error"
	// TargetIsDirectory means a file output path names an existing directory.
	TargetIsDirectory Kind = "target_is_directory"
	// UnsupportedPlatform means the operation needs fork and POSIX signals.
	UnsupportedPlatform Kind = "unsupported_platform"
)

func (k Kind) Error() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// Error is a classified error carrying the operation and path involved.
type Error struct {
	// Kind is the failure class
	Kind Kind

	// Op names the operation that failed (e.g. "start", "read pid file")
	Op string

	// Path is the filesystem path involved, if any
	Path string

	// Err is the underlying error
	Err error
}

// E builds a classified error. Path may be empty.
func E(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	} else {
		b.WriteString(e.Kind.Error())
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// IsUserVisible implements UserVisibleError.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage implements UserVisibleError.
func (e *Error) UserMessage() string {
	return e.Error()
}

// Suggestion implements UserVisibleError.
func (e *Error) Suggestion() string {
	switch e.Kind {
	case PermissionDenied:
		return "Re-run the command with sudo"
	case PidCorrupt:
		return fmt.Sprintf("Inspect and remove the pid file %s, then retry", e.Path)
	case UnsupportedPlatform:
		return "Run 'relay serve' in the foreground instead"
	case TargetIsDirectory:
		return "Pass a file path to --out, not a directory"
	case ConfigDecode:
		return "Run 'relay generate-template --cover' to see a valid config file"
	default:
		return ""
	}
}

// KindOf returns the Kind of the first classified error in err's chain,
// or the empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	var k Kind
	if As(err, &k) {
		return k
	}
	return ""
}

// ValidationError represents a configuration value that failed validation.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ConfigError represents a problem with the config file.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "port", "tls_cert")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
