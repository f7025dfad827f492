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
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"
)

// startSleeper runs a child that lives until signalled.
func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start sleep process: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})
	return cmd
}

func TestIsProcessRunning(t *testing.T) {
	t.Run("returns true for current process", func(t *testing.T) {
		if !IsProcessRunning(os.Getpid()) {
			t.Error("IsProcessRunning(os.Getpid()) = false, want true")
		}
	})

	t.Run("returns false for non-existent PID", func(t *testing.T) {
		if IsProcessRunning(999999) {
			t.Error("IsProcessRunning(999999) = true, want false")
		}
	})
}

func TestTerminate(t *testing.T) {
	t.Run("delivers SIGINT to a running process", func(t *testing.T) {
		cmd := startSleeper(t)

		d, err := Terminate(cmd.Process.Pid)
		if err != nil {
			t.Fatalf("Terminate() error = %v", err)
		}
		if d != Delivered {
			t.Errorf("Terminate() = %v, want %v", d, Delivered)
		}

		// sleep has no SIGINT handler, so it dies.
		if err := cmd.Wait(); err == nil {
			t.Error("sleep exited cleanly, want signal exit")
		}
	})

	t.Run("reports NotFound for a reaped process", func(t *testing.T) {
		cmd := exec.Command("sh", "-c", "exit 0")
		if err := cmd.Run(); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		d, err := Terminate(cmd.Process.Pid)
		if err != nil {
			t.Fatalf("Terminate() error = %v", err)
		}
		if d != NotFound {
			t.Errorf("Terminate() = %v, want %v", d, NotFound)
		}
	})
}

func TestWaitForExit(t *testing.T) {
	t.Run("returns nil when process exits", func(t *testing.T) {
		cmd := exec.Command("sh", "-c", "exit 0")
		if err := cmd.Run(); err != nil {
			t.Fatalf("Failed to run process: %v", err)
		}

		if err := WaitForExit(context.Background(), cmd.Process.Pid, 2*time.Second); err != nil {
			t.Errorf("WaitForExit() error = %v, want nil", err)
		}
	})

	t.Run("returns timeout error for long-running process", func(t *testing.T) {
		cmd := startSleeper(t)

		err := WaitForExit(context.Background(), cmd.Process.Pid, 200*time.Millisecond)
		if !errors.Is(err, ErrShutdownTimeout) {
			t.Errorf("WaitForExit() error = %v, want ErrShutdownTimeout", err)
		}
	})

	t.Run("returns context error when cancelled", func(t *testing.T) {
		cmd := startSleeper(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := WaitForExit(ctx, cmd.Process.Pid, time.Minute)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WaitForExit() error = %v, want context.Canceled", err)
		}
	})
}
