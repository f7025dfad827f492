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

package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLogAccess_Levels(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})

			LogAccess(logger, AccessEntry{
				Method:     http.MethodGet,
				Path:       "/v1/models",
				RemoteAddr: "127.0.0.1:5000",
				Status:     tt.status,
				Duration:   15 * time.Millisecond,
			})

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got %v", tt.wantLevel, entry["level"])
			}
			if entry[EventKey] != "http_access" {
				t.Errorf("expected event http_access, got %v", entry[EventKey])
			}
			if entry[DurationKey] != float64(15) {
				t.Errorf("expected duration_ms 15, got %v", entry[DurationKey])
			}
		})
	}
}

func TestHTTPMiddleware_Wrap(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	handler := NewHTTPMiddleware(logger).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/brew", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rec.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418 in log, got %v", entry["status"])
	}
	if entry["bytes"] != float64(len("short and stout")) {
		t.Errorf("expected bytes %d, got %v", len("short and stout"), entry["bytes"])
	}
	if entry["method"] != http.MethodPost || entry[PathKey] != "/brew" {
		t.Errorf("unexpected method/path: %v %v", entry["method"], entry[PathKey])
	}
}
