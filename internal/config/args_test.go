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

package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlags_ZeroDefaults(t *testing.T) {
	var args ServeArgs
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	BindFlags(fs, &args)

	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, ServeArgs{}, args)
}

func TestBindFlags_Shorthands(t *testing.T) {
	var args ServeArgs
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	BindFlags(fs, &args)

	require.NoError(t, fs.Parse([]string{
		"-C", "/etc/relay.yaml", "-H", "127.0.0.1", "-P", "8000", "-W", "2",
		"-x", "http://a.local:1", "-x", "http://b.local:2",
	}))

	assert.Equal(t, "/etc/relay.yaml", args.Config)
	assert.Equal(t, "127.0.0.1", args.Host)
	assert.Equal(t, 8000, args.Port)
	assert.Equal(t, 2, args.Workers)
	assert.Equal(t, []string{"http://a.local:1", "http://b.local:2"}, args.Proxies)
}

func TestServeArgs_ArgvRoundTrip(t *testing.T) {
	want := ServeArgs{
		Config:          "/etc/relay.yaml",
		Host:            "127.0.0.1",
		Port:            8000,
		Workers:         2,
		Proxies:         []string{"http://a.local:1", "socks5://b.local:2"},
		APIPrefix:       "/api",
		TLSCert:         "/etc/relay/cert.pem",
		TLSKey:          "/etc/relay/key.pem",
		Timeout:         30,
		ConnectTimeout:  5,
		TCPKeepalive:    15,
		ConcurrentLimit: 64,
		TBEnable:        true,
		TBStoreStrategy: StoreRedis,
		TBRedisURL:      []string{"redis://10.0.0.1:6379"},
		TBCapacity:      10,
		TBFillRate:      2,
		TBExpired:       3600,
		SignSecretKey:   "s3cret",
		CFSiteKey:       "site",
		CFSecretKey:     "secret",
		DisableWebUI:    true,
	}

	var got ServeArgs
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	BindFlags(fs, &got)

	require.NoError(t, fs.Parse(want.Argv()))
	assert.Equal(t, want, got)
}

func TestServeArgs_ArgvOmitsUnset(t *testing.T) {
	assert.Empty(t, ServeArgs{}.Argv())
	assert.Equal(t, []string{"--port", "9000"}, ServeArgs{Port: 9000}.Argv())
}
