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
	"bytes"
	"fmt"
	"io"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/tombee/relay/pkg/errors"
)

// Defaults applied by Resolve to every unset field.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 7999
	DefaultWorkers               = 1
	DefaultTimeoutSeconds        = 600
	DefaultConnectTimeoutSeconds = 60
	DefaultTCPKeepaliveSeconds   = 60
	DefaultConcurrentLimit       = 1024
	DefaultTBCapacity            = 60
	DefaultTBFillRate            = 1
	DefaultTBExpiredSeconds      = 86400
	DefaultRedisURL              = "redis://127.0.0.1:6379"
)

// Token bucket store strategies.
const (
	StoreMem   = "mem"
	StoreRedis = "redis"
)

// Resolved is the final gateway configuration. It is built once per
// invocation and passed by value.
type Resolved struct {
	Host      netip.Addr
	Port      uint16
	Proxies   []string
	APIPrefix string
	TLS       TLSKeyPair

	Timeout        time.Duration
	ConnectTimeout time.Duration
	TCPKeepalive   time.Duration

	Workers         int
	ConcurrentLimit int
	RateLimit       RateLimit

	SignSecretKey string
	CFSiteKey     string
	CFSecretKey   string
	DisableWebUI  bool
}

// TLSKeyPair is a certificate and key path. Both are set or both are empty.
type TLSKeyPair struct {
	CertFile string
	KeyFile  string
}

// RateLimit holds the token bucket settings.
type RateLimit struct {
	Enabled       bool
	StoreStrategy string
	RedisURLs     []string
	Capacity      int
	FillRate      int
	Expired       time.Duration
}

// Addr returns the host:port listen address.
func (r Resolved) Addr() string {
	return netip.AddrPortFrom(r.Host, r.Port).String()
}

// TLSEnabled reports whether a key pair is configured.
func (r Resolved) TLSEnabled() bool {
	return r.TLS.CertFile != ""
}

// Resolve turns serve arguments into a Resolved configuration.
//
// When normalizePaths is set, file paths are made absolute against the
// current directory first; the detached child runs from another directory.
// A config file, if given, replaces args entirely rather than merging.
func Resolve(args ServeArgs, normalizePaths bool) (Resolved, error) {
	if normalizePaths {
		var err error
		if args, err = NormalizePaths(args); err != nil {
			return Resolved{}, err
		}
	}

	if args.Config != "" {
		fileArgs, err := Load(args.Config)
		if err != nil {
			return Resolved{}, err
		}
		args = fileArgs
	}

	return withDefaults(args).resolve()
}

// NormalizePaths rewrites the config, certificate and key paths to absolute
// paths relative to the current working directory.
func NormalizePaths(args ServeArgs) (ServeArgs, error) {
	for _, p := range []*string{&args.Config, &args.TLSCert, &args.TLSKey} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return args, errors.E(errors.ConfigIO, "normalize path", *p, err)
		}
		*p = abs
	}
	return args, nil
}

// Load reads and decodes a config file. Unknown keys are rejected.
// Relative certificate and key paths in the file are taken relative to the
// file's own directory.
func Load(path string) (ServeArgs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServeArgs{}, errors.E(errors.ConfigIO, "read config", path, err)
	}

	if !utf8.Valid(data) {
		return ServeArgs{}, errors.E(errors.ConfigDecode, "decode config", path,
			&errors.ConfigError{Reason: "file is not valid UTF-8"})
	}

	var args ServeArgs
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&args); err != nil && err != io.EOF {
		return ServeArgs{}, errors.E(errors.ConfigDecode, "decode config", path,
			&errors.ConfigError{Reason: "malformed YAML", Cause: err})
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&args.TLSCert, &args.TLSKey} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	return args, nil
}

func withDefaults(a ServeArgs) ServeArgs {
	if a.Host == "" {
		a.Host = DefaultHost
	}
	if a.Port == 0 {
		a.Port = DefaultPort
	}
	if a.Workers == 0 {
		a.Workers = DefaultWorkers
	}
	if a.Timeout == 0 {
		a.Timeout = DefaultTimeoutSeconds
	}
	if a.ConnectTimeout == 0 {
		a.ConnectTimeout = DefaultConnectTimeoutSeconds
	}
	if a.TCPKeepalive == 0 {
		a.TCPKeepalive = DefaultTCPKeepaliveSeconds
	}
	if a.ConcurrentLimit == 0 {
		a.ConcurrentLimit = DefaultConcurrentLimit
	}
	if a.TBStoreStrategy == "" {
		a.TBStoreStrategy = StoreMem
	}
	if len(a.TBRedisURL) == 0 {
		a.TBRedisURL = []string{DefaultRedisURL}
	}
	if a.TBCapacity == 0 {
		a.TBCapacity = DefaultTBCapacity
	}
	if a.TBFillRate == 0 {
		a.TBFillRate = DefaultTBFillRate
	}
	if a.TBExpired == 0 {
		a.TBExpired = DefaultTBExpiredSeconds
	}
	return a
}

func (a ServeArgs) resolve() (Resolved, error) {
	invalid := func(field, msg string) (Resolved, error) {
		return Resolved{}, errors.E(errors.ConfigDecode, "validate config", a.Config,
			&errors.ValidationError{Field: field, Message: msg})
	}

	host, err := netip.ParseAddr(a.Host)
	if err != nil {
		return invalid("host", fmt.Sprintf("%q is not an IP address", a.Host))
	}
	if a.Port < 1 || a.Port > 65535 {
		return invalid("port", strconv.Itoa(a.Port)+" is out of range")
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"workers", a.Workers},
		{"timeout", a.Timeout},
		{"connect_timeout", a.ConnectTimeout},
		{"tcp_keepalive", a.TCPKeepalive},
		{"concurrent_limit", a.ConcurrentLimit},
		{"tb_capacity", a.TBCapacity},
		{"tb_fill_rate", a.TBFillRate},
		{"tb_expired", a.TBExpired},
	} {
		if f.v < 0 {
			return invalid(f.name, "must not be negative")
		}
	}

	for _, p := range a.Proxies {
		u, err := url.Parse(p)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("proxies", fmt.Sprintf("%q is not an absolute URL", p))
		}
	}

	if a.TBStoreStrategy != StoreMem && a.TBStoreStrategy != StoreRedis {
		return invalid("tb_store_strategy", fmt.Sprintf("%q is not one of mem, redis", a.TBStoreStrategy))
	}

	// An incomplete pair is rejected rather than silently running without TLS.
	if (a.TLSCert == "") != (a.TLSKey == "") {
		return invalid("tls_cert", "tls_cert and tls_key must be set together")
	}

	return Resolved{
		Host:      host,
		Port:      uint16(a.Port),
		Proxies:   slices.Clone(a.Proxies),
		APIPrefix: a.APIPrefix,
		TLS:       TLSKeyPair{CertFile: a.TLSCert, KeyFile: a.TLSKey},

		Timeout:        seconds(a.Timeout),
		ConnectTimeout: seconds(a.ConnectTimeout),
		TCPKeepalive:   seconds(a.TCPKeepalive),

		Workers:         a.Workers,
		ConcurrentLimit: a.ConcurrentLimit,
		RateLimit: RateLimit{
			Enabled:       a.TBEnable,
			StoreStrategy: a.TBStoreStrategy,
			RedisURLs:     slices.Clone(a.TBRedisURL),
			Capacity:      a.TBCapacity,
			FillRate:      a.TBFillRate,
			Expired:       seconds(a.TBExpired),
		},

		SignSecretKey: a.SignSecretKey,
		CFSiteKey:     a.CFSiteKey,
		CFSecretKey:   a.CFSecretKey,
		DisableWebUI:  a.DisableWebUI,
	}, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
