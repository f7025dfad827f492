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
	"fmt"
	"net"

	"github.com/tombee/relay/internal/config"
)

// listen opens the TCP listener, wrapped in TLS when a key pair is loaded.
func listen(ctx context.Context, cfg config.Resolved, tlsConfig *tls.Config) (net.Listener, error) {
	lc := net.ListenConfig{KeepAlive: cfg.TCPKeepalive}

	ln, err := lc.Listen(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on TCP: %w", err)
	}

	if tlsConfig != nil {
		return tls.NewListener(ln, tlsConfig), nil
	}
	return ln, nil
}
