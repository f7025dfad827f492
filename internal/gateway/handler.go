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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/tombee/relay/internal/config"
	internallog "github.com/tombee/relay/internal/log"
)

// Signature headers checked when a signing key is configured.
const (
	TimestampHeader = "X-Relay-Timestamp"
	SignatureHeader = "X-Relay-Signature"

	// signatureSkew bounds how far a request timestamp may drift.
	signatureSkew = 5 * time.Minute
)

type gateway struct {
	cfg      config.Resolved
	logger   *slog.Logger
	upstream *url.URL
	pool     *upstreamPool
	metrics  *metrics
	inflight *semaphore.Weighted
	limiter  *rateLimiter
	prefix   string
	now      func() time.Time
}

func (g *gateway) routes(reg *prometheus.Registry) http.Handler {
	if g.now == nil {
		g.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if !g.cfg.DisableWebUI {
		mux.HandleFunc("GET /{$}", g.handleIndex)
	}
	mux.Handle(g.prefix+"/v1/", g.apiChain(http.HandlerFunc(g.forward)))

	return internallog.NewHTTPMiddleware(g.logger).Wrap(mux)
}

// apiChain applies, outermost first: signature check, rate limit,
// concurrency limit.
func (g *gateway) apiChain(next http.Handler) http.Handler {
	h := g.limitConcurrency(next)
	if g.limiter != nil {
		h = g.rateLimit(h)
	}
	if g.cfg.SignSecretKey != "" {
		h = g.verifySignature(h)
	}
	return h
}

func (g *gateway) limitConcurrency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.inflight.TryAcquire(1) {
			g.reject(w, http.StatusServiceUnavailable, "concurrency_limit")
			return
		}
		defer g.inflight.Release(1)
		next.ServeHTTP(w, r)
	})
}

func (g *gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			g.reject(w, http.StatusTooManyRequests, "rate_limit")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *gateway) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := CheckSignature(g.cfg.SignSecretKey, r, g.now()); err != nil {
			g.logger.Debug("signature rejected", internallog.RemoteKey, r.RemoteAddr, internallog.Error(err))
			g.reject(w, http.StatusUnauthorized, "signature")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sign returns the signature of a request made at ts.
// The signed text is "<unix seconds>\n<METHOD>\n<path>".
func Sign(secret string, ts time.Time, method, path string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d\n%s\n%s", ts.Unix(), method, path)
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckSignature verifies the signature headers of r against secret.
func CheckSignature(secret string, r *http.Request, now time.Time) error {
	rawTS := r.Header.Get(TimestampHeader)
	signature := r.Header.Get(SignatureHeader)
	if rawTS == "" || signature == "" {
		return errors.New("missing signature headers")
	}

	secs, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", rawTS)
	}
	ts := time.Unix(secs, 0)
	if d := now.Sub(ts); d > signatureSkew || d < -signatureSkew {
		return fmt.Errorf("timestamp outside the allowed window")
	}

	expected := Sign(secret, ts, r.Method, r.URL.Path)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return errors.New("signature mismatch")
	}
	return nil
}

func (g *gateway) reject(w http.ResponseWriter, status int, reason string) {
	g.metrics.rejected.WithLabelValues(reason).Inc()
	g.metrics.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	writeJSON(w, status, map[string]string{"error": reason})
}

// forward proxies the request to the upstream with the API prefix removed.
func (g *gateway) forward(w http.ResponseWriter, r *http.Request) {
	start := g.now()
	g.metrics.inflight.Inc()
	defer g.metrics.inflight.Dec()

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.Timeout)
	defer cancel()

	transport, proxyName := g.pool.pick()
	status := http.StatusOK

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(g.upstream)
			pr.Out.URL.Path = strings.TrimSuffix(g.upstream.Path, "/") + strings.TrimPrefix(pr.In.URL.Path, g.prefix)
			pr.Out.URL.RawPath = ""
			pr.Out.Host = g.upstream.Host
		},
		Transport:     transport,
		FlushInterval: -1,
		ModifyResponse: func(resp *http.Response) error {
			status = resp.StatusCode
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			status = http.StatusBadGateway
			g.metrics.upstreamErrors.WithLabelValues(proxyName).Inc()
			g.logger.Warn("upstream request failed", "proxy", proxyName, internallog.Error(err))
			writeJSON(w, status, map[string]string{"error": "upstream_unavailable"})
		},
	}
	rp.ServeHTTP(w, r.WithContext(ctx))

	g.metrics.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	g.metrics.duration.Observe(g.now().Sub(start).Seconds())
}

func (g *gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>relay</title></head>
<body>
<h1>relay</h1>
<p>API: <code>{{.Prefix}}/v1/</code></p>
{{if .SiteKey}}<div class="cf-turnstile" data-sitekey="{{.SiteKey}}"></div>
<script src="https://challenges.cloudflare.com/turnstile/v0/api.js" async defer></script>{{end}}
</body>
</html>
`))

func (g *gateway) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct {
		Prefix  string
		SiteKey string
	}{g.prefix, g.cfg.CFSiteKey}); err != nil {
		g.logger.Error("failed to render index", internallog.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP is the host part of the peer address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
