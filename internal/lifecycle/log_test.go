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
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []LifecycleEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []LifecycleEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev LifecycleEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestLifecycleLogger_AppendsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay-lifecycle.log")
	l := NewLifecycleLogger(path)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	require.NoError(t, l.LogStart(4242, []string{"relay", "serve", "start", "--port", "8000"}, "/etc/relay.yaml"))
	require.NoError(t, l.LogAlreadyRunning(4242))
	require.NoError(t, l.LogStop(4242, Delivered, nil))
	require.NoError(t, l.LogStopNotRunning())
	require.NoError(t, l.LogStartFailure(errors.New("boom")))
	require.NoError(t, l.LogStalePID(0, "corrupt"))

	events := readEvents(t, path)
	require.Len(t, events, 6)

	names := make([]string, len(events))
	ids := make(map[string]bool)
	for i, ev := range events {
		names[i] = ev.Event
		_, err := uuid.Parse(ev.ID)
		assert.NoError(t, err, "event id must be a uuid")
		ids[ev.ID] = true
		assert.True(t, fixed.Equal(ev.Timestamp))
	}
	assert.Equal(t, []string{"start", "already_running", "stop", "stop_not_running", "start_failure", "stale_pid_detected"}, names)
	assert.Len(t, ids, 6, "event ids must be unique")

	assert.Equal(t, 4242, events[0].PID)
	assert.Equal(t, "8000", events[0].Flags["port"])
	assert.Equal(t, "/etc/relay.yaml", events[0].ConfigFile)
	assert.False(t, events[4].Success)
	assert.Equal(t, "boom", events[4].Error)
}

func TestLifecycleLogger_StopFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay-lifecycle.log")
	l := NewLifecycleLogger(path)

	require.NoError(t, l.LogStop(77, 0, errors.New("operation not permitted")))

	events := readEvents(t, path)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Equal(t, "operation not permitted", events[0].Error)
}

func TestParseFlags(t *testing.T) {
	flags := parseFlags([]string{
		"relay", "serve", "start",
		"--port", "8000",
		"--tb-enable",
		"--proxies", "http://a.local:1", "--proxies", "http://b.local:2",
		"--sign-secret-key", "hunter2",
		"--cf-secret-key", "s3cret",
	})

	assert.Equal(t, map[string]string{
		"port":            "8000",
		"tb-enable":       "true",
		"proxies":         "http://a.local:1,http://b.local:2",
		"sign-secret-key": "[REDACTED]",
		"cf-secret-key":   "[REDACTED]",
	}, flags)
}
