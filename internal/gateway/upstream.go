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
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/tombee/relay/internal/config"
)

// upstreamPool holds one transport per outbound proxy and hands them out
// in turn. With no proxies it holds a single direct transport.
type upstreamPool struct {
	transports []*http.Transport
	names      []string
	next       atomic.Uint64
}

func newUpstreamPool(cfg config.Resolved) (*upstreamPool, error) {
	p := &upstreamPool{}

	if len(cfg.Proxies) == 0 {
		p.add(newTransport(cfg, nil), "direct")
		return p, nil
	}

	for _, raw := range cfg.Proxies {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		}
		p.add(newTransport(cfg, u), u.Redacted())
	}
	return p, nil
}

func (p *upstreamPool) add(t *http.Transport, name string) {
	p.transports = append(p.transports, t)
	p.names = append(p.names, name)
}

// pick returns the next transport and a printable name for it.
func (p *upstreamPool) pick() (*http.Transport, string) {
	i := int((p.next.Add(1) - 1) % uint64(len(p.transports)))
	return p.transports[i], p.names[i]
}

// CloseAll closes idle connections on every transport.
func (p *upstreamPool) CloseAll() {
	for _, t := range p.transports {
		t.CloseIdleConnections()
	}
}

func newTransport(cfg config.Resolved, proxy *url.URL) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.TCPKeepalive,
	}
	t := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: time.Second,
	}
	if proxy != nil {
		// http, https and socks5 schemes are handled by net/http.
		t.Proxy = http.ProxyURL(proxy)
	}
	return t
}
