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

//go:build linux || darwin || freebsd

package lifecycle

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// Terminate sends SIGINT to pid. It does not wait for the process to exit.
// A missing process is reported as NotFound, not as an error.
func Terminate(pid int) (Delivery, error) {
	err := unix.Kill(pid, unix.SIGINT)
	switch {
	case err == nil:
		return Delivered, nil
	case errors.Is(err, unix.ESRCH):
		return NotFound, nil
	default:
		return 0, pkgerrors.E(pkgerrors.ProcessSignalFailed, "signal process", "",
			fmt.Errorf("SIGINT to pid %d: %w", pid, err))
	}
}

// IsProcessRunning checks if a process with the given PID exists.
func IsProcessRunning(pid int) bool {
	// Signal 0 only checks existence. EPERM means it exists under another user.
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
