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
	"context"
	"log/slog"
	"net/http"
	"time"
)

// AccessEntry describes one completed HTTP request.
type AccessEntry struct {
	Method     string
	Path       string
	RemoteAddr string
	Status     int
	Bytes      int64
	Duration   time.Duration
}

// LogAccess writes an access log line. Server errors are logged at error
// level, client errors at warn, everything else at info.
func LogAccess(logger *slog.Logger, e AccessEntry) {
	level := slog.LevelInfo
	switch {
	case e.Status >= 500:
		level = slog.LevelError
	case e.Status >= 400:
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "request completed",
		EventKey, "http_access",
		"method", e.Method,
		PathKey, e.Path,
		"status", e.Status,
		"bytes", e.Bytes,
		DurationKey, e.Duration.Milliseconds(),
		RemoteKey, e.RemoteAddr,
	)
}

// HTTPMiddleware logs every request that passes through it.
type HTTPMiddleware struct {
	logger *slog.Logger
}

// NewHTTPMiddleware creates a new access log middleware.
func NewHTTPMiddleware(logger *slog.Logger) *HTTPMiddleware {
	return &HTTPMiddleware{
		logger: logger,
	}
}

// Wrap returns next wrapped with access logging.
func (m *HTTPMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		LogAccess(m.logger, AccessEntry{
			Method:     r.Method,
			Path:       r.URL.Path,
			RemoteAddr: r.RemoteAddr,
			Status:     rec.status,
			Bytes:      rec.bytes,
			Duration:   time.Since(start),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

// Flush lets streamed upstream responses pass through unbuffered.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
