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

package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tombee/relay/internal/config"
	internallog "github.com/tombee/relay/internal/log"
)

// shutdownTimeout bounds the graceful drain after a stop signal.
const shutdownTimeout = 10 * time.Second

// Launcher runs a built gateway.
type Launcher struct {
	cfg       config.Resolved
	logger    *slog.Logger
	handler   http.Handler
	tlsConfig *tls.Config
	pool      *upstreamPool
	onListen  func(net.Addr)
}

// Handler returns the gateway's HTTP handler.
func (l *Launcher) Handler() http.Handler {
	return l.handler
}

// Run serves until SIGINT, SIGTERM or ctx is done, then drains in-flight
// requests and returns. A listen or serve failure is returned as is.
func (l *Launcher) Run(ctx context.Context) error {
	if l.cfg.Workers > 0 {
		runtime.GOMAXPROCS(l.cfg.Workers)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := listen(ctx, l.cfg, l.tlsConfig)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: l.cfg.ConnectTimeout,
		IdleTimeout:       l.cfg.TCPKeepalive,
		ErrorLog:          slog.NewLogLogger(l.logger.Handler(), slog.LevelWarn),
	}
	defer l.pool.CloseAll()

	l.logger.Info("relay gateway listening",
		"addr", ln.Addr().String(),
		"tls", l.tlsConfig != nil,
		"proxies", len(l.cfg.Proxies),
		"workers", l.cfg.Workers,
		"rate_limit", l.cfg.RateLimit.Enabled,
		"sign_secret_key", internallog.SanitizeSecret(l.cfg.SignSecretKey),
	)
	if l.onListen != nil {
		l.onListen(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", "reason", context.Cause(ctx))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway error: %w", err)
	}
}
