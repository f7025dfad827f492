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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// Exit codes for relay commands
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitPermission  = 3
	ExitPIDRecord   = 4
	ExitUnsupported = 5
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExitError wraps cause with a message and the exit code of its kind.
func NewExitError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitCodeFor(cause),
		Message: msg,
		Cause:   cause,
	}
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch pkgerrors.KindOf(err) {
	case pkgerrors.ConfigIO, pkgerrors.ConfigDecode:
		return ExitConfigError
	case pkgerrors.PermissionDenied:
		return ExitPermission
	case pkgerrors.PidCorrupt:
		return ExitPIDRecord
	case pkgerrors.UnsupportedPlatform:
		return ExitUnsupported
	default:
		return ExitFailure
	}
}

// HandleExitError prints err and exits with the code for its kind.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(ReportError(os.Stdout, os.Stderr, err))
}

// ReportError writes err, and its suggestion if any, to stderr and returns
// the exit code. With --json the report is a JSON envelope on stdout instead.
func ReportError(stdout, stderr io.Writer, err error) int {
	code := ExitCodeFor(err)

	if GetJSON() {
		_ = EmitJSONError(stdout, []JSONError{{
			Code:       ErrorCodeFor(err),
			Message:    err.Error(),
			Suggestion: suggestionFor(err),
		}})
		return code
	}

	msg := "Error: " + err.Error()
	if IsTerminal(stderr) {
		msg = RenderError(msg)
	}
	fmt.Fprintln(stderr, msg)
	if s := suggestionFor(err); s != "" {
		fmt.Fprintf(stderr, "\nSuggestion: %s\n", s)
	}
	return code
}

// suggestionFor returns the suggestion of the first user-visible error in
// err's chain.
func suggestionFor(err error) string {
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				return userErr.Suggestion()
			}
			return ""
		}
		err = errors.Unwrap(err)
	}
	return ""
}
