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
	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// Error codes for structured JSON output
const (
	// Configuration errors (E200-E299)
	ErrorCodeConfigNotFound = "E201" // Config file missing or unreadable
	ErrorCodeInvalidConfig  = "E202" // Config file or flags rejected

	// Process errors (E300-E399)
	ErrorCodePermission   = "E301" // Root required
	ErrorCodePIDCorrupt   = "E302" // Pid record unreadable
	ErrorCodeSignalFailed = "E303" // Signal not delivered
	ErrorCodeDaemonize    = "E304" // Detach failed

	// Filesystem errors (E400-E499)
	ErrorCodeFileSystem  = "E401" // Support file could not be written
	ErrorCodeIsDirectory = "E402" // Target is a directory

	ErrorCodeUnsupported = "E501" // Platform cannot detach
	ErrorCodeInternal    = "E999" // Anything else
)

// ErrorCodeFor maps an error's kind to its JSON error code.
func ErrorCodeFor(err error) string {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.ConfigIO:
		return ErrorCodeConfigNotFound
	case pkgerrors.ConfigDecode:
		return ErrorCodeInvalidConfig
	case pkgerrors.PermissionDenied:
		return ErrorCodePermission
	case pkgerrors.PidCorrupt:
		return ErrorCodePIDCorrupt
	case pkgerrors.ProcessSignalFailed:
		return ErrorCodeSignalFailed
	case pkgerrors.DaemonizeFailed:
		return ErrorCodeDaemonize
	case pkgerrors.FileSystemError:
		return ErrorCodeFileSystem
	case pkgerrors.TargetIsDirectory:
		return ErrorCodeIsDirectory
	case pkgerrors.UnsupportedPlatform:
		return ErrorCodeUnsupported
	default:
		return ErrorCodeInternal
	}
}
