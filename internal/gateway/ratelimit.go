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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tombee/relay/internal/config"
)

// rateLimiter keeps one token bucket per client. Buckets untouched for the
// expiry period are dropped.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	expired   time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(cfg config.RateLimit, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     rate.Limit(cfg.FillRate),
		burst:     cfg.Capacity,
		expired:   cfg.Expired,
		now:       now,
		lastSweep: now(),
	}
}

// Allow takes one token from key's bucket.
func (l *rateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.expired > 0 && now.Sub(l.lastSweep) >= l.expired {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. Callers hold mu.
func (l *rateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.expired {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked clients.
func (l *rateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
