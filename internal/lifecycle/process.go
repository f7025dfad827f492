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
	"context"
	"errors"
	"time"
)

// ErrShutdownTimeout is returned when the process doesn't exit within the timeout.
var ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

// Delivery is the outcome of Terminate.
type Delivery int

const (
	// Delivered means the interrupt signal reached the process.
	Delivered Delivery = iota + 1
	// NotFound means no process with that pid exists.
	NotFound
)

func (d Delivery) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// exitPollInterval is how often WaitForExit checks the process.
const exitPollInterval = 100 * time.Millisecond

// WaitForExit polls until pid is gone, the timeout elapses or ctx is done.
// Returns ErrShutdownTimeout if the process is still running after timeout.
func WaitForExit(ctx context.Context, pid int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()

	for {
		if !IsProcessRunning(pid) {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrShutdownTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
