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

package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

var (
	// ErrPIDFileExists is returned when trying to create a PID file that already exists.
	ErrPIDFileExists = errors.New("PID file already exists")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// pidFilePerm leaves the record readable so status works without sudo.
const pidFilePerm = 0o644

// PIDFileManager owns the pid record of the background instance.
//
// Create is the admission gate: it uses O_EXCL, so of two racing starts only
// one can succeed. The record is never checked against OS liveness; a file
// holding a positive integer means "running".
type PIDFileManager struct {
	path string
}

// NewPIDFileManager creates a new PID file manager for the given path.
func NewPIDFileManager(path string) *PIDFileManager {
	return &PIDFileManager{
		path: path,
	}
}

// Path returns the pid file location.
func (m *PIDFileManager) Path() string {
	return m.path
}

// Create atomically creates the PID file holding pid.
// Returns ErrPIDFileExists if the file is already present.
func (m *PIDFileManager) Create(pid int) error {
	parentDir := filepath.Dir(m.path)
	if err := m.verifyDirectorySafety(parentDir); err != nil {
		return pkgerrors.E(pkgerrors.FileSystemError, "create pid file", m.path, err)
	}

	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return pkgerrors.E(pkgerrors.FileSystemError, "create pid directory", parentDir, err)
	}

	// O_EXCL also refuses to follow a planted symlink.
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, pidFilePerm)
	if err != nil {
		if os.IsExist(err) {
			return ErrPIDFileExists
		}
		return pkgerrors.E(pkgerrors.FileSystemError, "create pid file", m.path, err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		f.Close()
		os.Remove(m.path)
		return pkgerrors.E(pkgerrors.FileSystemError, "write pid file", m.path, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(m.path)
		return pkgerrors.E(pkgerrors.FileSystemError, "sync pid file", m.path, err)
	}

	return f.Close()
}

// Read returns the recorded PID.
// An absent file yields an error matching os.ErrNotExist; content that is not
// an integer in 1..math.MaxInt32 yields a PidCorrupt error wrapping ErrInvalidPID.
func (m *PIDFileManager) Read() (int, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, pkgerrors.E(pkgerrors.FileSystemError, "read pid file", m.path, err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.ParseInt(pidStr, 10, 32)
	if err != nil {
		return 0, pkgerrors.E(pkgerrors.PidCorrupt, "read pid file", m.path,
			fmt.Errorf("%w: %q", ErrInvalidPID, pidStr))
	}

	if pid <= 0 {
		return 0, pkgerrors.E(pkgerrors.PidCorrupt, "read pid file", m.path,
			fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid))
	}

	return int(pid), nil
}

// Remove deletes the PID file. A missing file is not an error.
func (m *PIDFileManager) Remove() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.E(pkgerrors.FileSystemError, "remove pid file", m.path, err)
	}
	return nil
}

// verifyDirectorySafety rejects a world-writable parent without the sticky
// bit, where another user could swap the record.
func (m *PIDFileManager) verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	mode := info.Mode()
	if mode&0o002 != 0 && mode&os.ModeSticky == 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}

	return nil
}
