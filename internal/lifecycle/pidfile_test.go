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
	"os"
	"path/filepath"
	"sync"
	"testing"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

func TestPIDFileManager_Create(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates PID file with correct content", func(t *testing.T) {
		pidPath := filepath.Join(tmpDir, "test.pid")
		m := NewPIDFileManager(pidPath)
		defer m.Remove()

		if err := m.Create(1234); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if _, err := os.Stat(pidPath); err != nil {
			t.Errorf("PID file does not exist after Create(): %v", err)
		}

		pid, err := m.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if pid != 1234 {
			t.Errorf("Read() = %d, want 1234", pid)
		}

		data, err := os.ReadFile(pidPath)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "1234\n" {
			t.Errorf("file content = %q, want %q", data, "1234\n")
		}
	})

	t.Run("returns ErrPIDFileExists and keeps the first record", func(t *testing.T) {
		pidPath := filepath.Join(tmpDir, "duplicate.pid")
		m1 := NewPIDFileManager(pidPath)
		m2 := NewPIDFileManager(pidPath)
		defer m1.Remove()

		if err := m1.Create(1234); err != nil {
			t.Fatalf("First Create() error = %v", err)
		}

		err := m2.Create(5678)
		if !errors.Is(err, ErrPIDFileExists) {
			t.Errorf("Second Create() error = %v, want ErrPIDFileExists", err)
		}

		pid, err := m1.Read()
		if err != nil || pid != 1234 {
			t.Errorf("Read() = %d, %v, want 1234, nil", pid, err)
		}
	})

	t.Run("creates parent directory if missing", func(t *testing.T) {
		deepPath := filepath.Join(tmpDir, "nested", "dir", "test.pid")
		m := NewPIDFileManager(deepPath)
		defer m.Remove()

		if err := m.Create(1234); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if _, err := os.Stat(filepath.Dir(deepPath)); err != nil {
			t.Fatalf("Parent directory not created: %v", err)
		}
	})

	t.Run("exactly one of many racing creates wins", func(t *testing.T) {
		pidPath := filepath.Join(tmpDir, "race.pid")
		defer os.Remove(pidPath)

		const racers = 16
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := range racers {
			wg.Add(1)
			go func(pid int) {
				defer wg.Done()
				err := NewPIDFileManager(pidPath).Create(pid)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				} else if !errors.Is(err, ErrPIDFileExists) {
					t.Errorf("Create(%d) error = %v", pid, err)
				}
			}(1000 + i)
		}
		wg.Wait()

		if wins != 1 {
			t.Errorf("winners = %d, want 1", wins)
		}
	})
}

func TestPIDFileManager_Read(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("reads valid PID", func(t *testing.T) {
		pidPath := filepath.Join(tmpDir, "valid.pid")
		if err := os.WriteFile(pidPath, []byte("9999\n"), 0600); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		pid, err := NewPIDFileManager(pidPath).Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if pid != 9999 {
			t.Errorf("Read() = %d, want 9999", pid)
		}
	})

	t.Run("returns not-exist error for missing file", func(t *testing.T) {
		_, err := NewPIDFileManager(filepath.Join(tmpDir, "nonexistent.pid")).Read()
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Read() error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("returns PidCorrupt for invalid PID", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"non-numeric", "not-a-number\n"},
			{"negative", "-123\n"},
			{"zero", "0\n"},
			{"float", "123.45\n"},
			{"empty", ""},
			{"wraps to -1 as pid_t", "4294967295\n"},
			{"above int32", "2147483648\n"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				pidPath := filepath.Join(tmpDir, tt.name+".pid")
				if err := os.WriteFile(pidPath, []byte(tt.content), 0600); err != nil {
					t.Fatalf("Failed to create test file: %v", err)
				}

				_, err := NewPIDFileManager(pidPath).Read()
				if !errors.Is(err, pkgerrors.PidCorrupt) {
					t.Errorf("Read() error = %v, want PidCorrupt", err)
				}
				if !errors.Is(err, ErrInvalidPID) {
					t.Errorf("Read() error = %v, want ErrInvalidPID", err)
				}
			})
		}
	})

	t.Run("handles whitespace", func(t *testing.T) {
		pidPath := filepath.Join(tmpDir, "whitespace.pid")
		if err := os.WriteFile(pidPath, []byte("  1234  \n"), 0600); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		pid, err := NewPIDFileManager(pidPath).Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if pid != 1234 {
			t.Errorf("Read() = %d, want 1234", pid)
		}
	})
}

func TestPIDFileManager_Remove(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("removes PID file and allows a new create", func(t *testing.T) {
		pidPath := filepath.Join(tmpDir, "remove.pid")
		m := NewPIDFileManager(pidPath)

		if err := m.Create(1234); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := m.Remove(); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
			t.Errorf("PID file still exists after Remove(): %v", err)
		}

		m2 := NewPIDFileManager(pidPath)
		defer m2.Remove()
		if err := m2.Create(5678); err != nil {
			t.Errorf("Failed to create new PID file after Remove(): %v", err)
		}
	})

	t.Run("succeeds if file already removed", func(t *testing.T) {
		m := NewPIDFileManager(filepath.Join(tmpDir, "already-removed.pid"))
		if err := m.Remove(); err != nil {
			t.Errorf("Remove() error = %v, want nil", err)
		}
	})
}

func TestPIDFileManager_DirectorySafety(t *testing.T) {
	t.Run("rejects world-writable directory", func(t *testing.T) {
		unsafeDir := filepath.Join(t.TempDir(), "unsafe")
		if err := os.Mkdir(unsafeDir, 0777); err != nil {
			t.Fatalf("Failed to create unsafe directory: %v", err)
		}
		// Mkdir is subject to the umask.
		if err := os.Chmod(unsafeDir, 0777); err != nil {
			t.Fatalf("Chmod() error = %v", err)
		}

		m := NewPIDFileManager(filepath.Join(unsafeDir, "test.pid"))
		err := m.Create(1234)
		if err == nil {
			m.Remove()
			t.Fatal("Create() in world-writable directory succeeded, want error")
		}
		if !errors.Is(err, ErrUnsafeDirectory) {
			t.Errorf("Create() error = %v, want ErrUnsafeDirectory", err)
		}
	})

	t.Run("accepts world-writable directory with sticky bit", func(t *testing.T) {
		stickyDir := filepath.Join(t.TempDir(), "sticky")
		if err := os.Mkdir(stickyDir, 0777); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.Chmod(stickyDir, 0777|os.ModeSticky); err != nil {
			t.Fatalf("Chmod() error = %v", err)
		}

		m := NewPIDFileManager(filepath.Join(stickyDir, "test.pid"))
		defer m.Remove()
		if err := m.Create(1234); err != nil {
			t.Errorf("Create() error = %v", err)
		}
	})
}
