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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/relay/internal/log"
)

// LifecycleEvent represents a lifecycle event (start, stop, etc.).
type LifecycleEvent struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Event      string            `json:"event"` // "start", "stop", "stale_pid_detected", etc.
	PID        int               `json:"pid,omitempty"`
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Flags      map[string]string `json:"flags,omitempty"`
	ConfigFile string            `json:"config_file,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// LifecycleLogger appends start and stop events to a JSON-lines file.
type LifecycleLogger struct {
	logPath string
	now     func() time.Time
}

// NewLifecycleLogger creates a new lifecycle logger.
func NewLifecycleLogger(logPath string) *LifecycleLogger {
	return &LifecycleLogger{
		logPath: logPath,
		now:     time.Now,
	}
}

// LogStart logs a detached start, with the child's argv flags.
func (l *LifecycleLogger) LogStart(pid int, args []string, configFile string) error {
	return l.writeEvent(LifecycleEvent{
		Event:      "start",
		PID:        pid,
		Success:    true,
		Message:    "Service detached",
		Flags:      parseFlags(args),
		ConfigFile: configFile,
	})
}

// LogStartFailure logs a start that did not reach the detach.
func (l *LifecycleLogger) LogStartFailure(err error) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "start_failure",
		Success: false,
		Message: "Service failed to start",
		Error:   err.Error(),
	})
}

// LogAlreadyRunning logs a start refused by an existing pid record.
func (l *LifecycleLogger) LogAlreadyRunning(pid int) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "already_running",
		PID:     pid,
		Success: true,
		Message: "Service already running",
	})
}

// LogStalePID logs a pid record that was discarded.
func (l *LifecycleLogger) LogStalePID(pid int, reason string) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "stale_pid_detected",
		PID:     pid,
		Success: true,
		Message: fmt.Sprintf("Stale PID file detected and removed: %s", reason),
	})
}

// LogStop logs the outcome of a stop. A nil err with delivery NotFound means
// the recorded process was already gone.
func (l *LifecycleLogger) LogStop(pid int, delivery Delivery, err error) error {
	event := LifecycleEvent{
		Event:   "stop",
		PID:     pid,
		Success: err == nil,
		Message: "Interrupt " + delivery.String(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	return l.writeEvent(event)
}

// LogStopNotRunning logs a stop with no pid record.
func (l *LifecycleLogger) LogStopNotRunning() error {
	return l.writeEvent(LifecycleEvent{
		Event:   "stop_not_running",
		Success: true,
		Message: "No pid record",
	})
}

// writeEvent appends a lifecycle event to the log file.
func (l *LifecycleLogger) writeEvent(event LifecycleEvent) error {
	event.ID = uuid.NewString()
	event.Timestamp = l.now()

	logDir := filepath.Dir(l.logPath)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open lifecycle log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// parseFlags turns "--name value" pairs into a map. Values of flags whose
// name mentions a secret are redacted.
func parseFlags(args []string) map[string]string {
	flags := make(map[string]string)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		key := strings.TrimLeft(arg, "-")
		value := "true"
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			value = args[i+1]
			i++
		}
		if strings.Contains(key, "secret") {
			value = log.SanitizeSecret(value)
		}

		if prev, ok := flags[key]; ok {
			value = prev + "," + value
		}
		flags[key] = value
	}

	return flags
}
