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
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/tombee/relay/internal/config"
	internallog "github.com/tombee/relay/internal/log"
	"github.com/tombee/relay/pkg/errors"
)

// DefaultUpstream is the API the gateway forwards to.
const DefaultUpstream = "https://api.openai.com"

// Builder assembles a Launcher from a resolved configuration.
type Builder struct {
	cfg      config.Resolved
	upstream string
	logger   *slog.Logger
	onListen func(net.Addr)
}

// NewBuilder starts a builder for cfg.
func NewBuilder(cfg config.Resolved) *Builder {
	return &Builder{cfg: cfg, upstream: DefaultUpstream}
}

// WithLogger sets the logger. The default logs JSON to stdout.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithUpstream overrides the upstream base URL.
func (b *Builder) WithUpstream(rawURL string) *Builder {
	b.upstream = rawURL
	return b
}

// OnListen registers a callback that receives the bound address once the
// listener is open.
func (b *Builder) OnListen(fn func(net.Addr)) *Builder {
	b.onListen = fn
	return b
}

// Build validates the configuration and wires the handler chain.
func (b *Builder) Build() (*Launcher, error) {
	logger := b.logger
	if logger == nil {
		// In the detached child stdout is the file "serve log" reads.
		cfg := internallog.FromEnv()
		cfg.Output = os.Stdout
		logger = internallog.New(cfg)
	}
	logger = internallog.WithComponent(logger, "gateway")

	upstream, err := url.Parse(b.upstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", b.upstream)
	}

	pool, err := newUpstreamPool(b.cfg)
	if err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config
	if b.cfg.TLSEnabled() {
		cert, err := tls.LoadX509KeyPair(b.cfg.TLS.CertFile, b.cfg.TLS.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load TLS certificate")
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	if b.cfg.RateLimit.Enabled && b.cfg.RateLimit.StoreStrategy == config.StoreRedis {
		logger.Warn("redis token bucket store is not available; using the in-memory store",
			"redis_urls", strings.Join(b.cfg.RateLimit.RedisURLs, ","))
	}

	registry := prometheus.NewRegistry()
	g := &gateway{
		cfg:      b.cfg,
		logger:   logger,
		upstream: upstream,
		pool:     pool,
		metrics:  newMetrics(registry),
		inflight: semaphore.NewWeighted(int64(b.cfg.ConcurrentLimit)),
		prefix:   normalizePrefix(b.cfg.APIPrefix),
	}
	if b.cfg.RateLimit.Enabled {
		g.limiter = newRateLimiter(b.cfg.RateLimit, time.Now)
	}

	return &Launcher{
		cfg:       b.cfg,
		logger:    logger,
		handler:   g.routes(registry),
		tlsConfig: tlsConfig,
		pool:      pool,
		onListen:  b.onListen,
	}, nil
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
