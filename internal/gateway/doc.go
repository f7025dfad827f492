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

// Package gateway is the relay HTTP service run by "relay serve".
//
// It forwards {api_prefix}/v1/* to the upstream API, spreading requests over
// the configured outbound proxies in turn, and serves /health, /metrics and
// a small index page. Requests to the API routes pass through a concurrency
// limit, an optional per-client token bucket and an optional HMAC signature
// check.
//
//	l, err := gateway.NewBuilder(cfg).Build()
//	if err != nil {
//	    return err
//	}
//	return l.Run(ctx) // blocks until SIGINT, SIGTERM or ctx is done
package gateway
