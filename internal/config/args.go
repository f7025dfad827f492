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
	"strconv"

	"github.com/spf13/pflag"
)

// ServeArgs holds the gateway options as given on the command line or in a
// config file. A zero field means "unset"; Resolve fills in defaults.
type ServeArgs struct {
	// Config is the path of a config file that replaces every other field.
	Config string `yaml:"-"`

	Host    string   `yaml:"host,omitempty"`
	Port    int      `yaml:"port,omitempty"`
	Workers int      `yaml:"workers,omitempty"`
	Proxies []string `yaml:"proxies,omitempty"`

	APIPrefix string `yaml:"api_prefix,omitempty"`
	TLSCert   string `yaml:"tls_cert,omitempty"`
	TLSKey    string `yaml:"tls_key,omitempty"`

	// Timeouts are whole seconds.
	Timeout        int `yaml:"timeout,omitempty"`
	ConnectTimeout int `yaml:"connect_timeout,omitempty"`
	TCPKeepalive   int `yaml:"tcp_keepalive,omitempty"`

	ConcurrentLimit int `yaml:"concurrent_limit,omitempty"`

	TBEnable        bool     `yaml:"tb_enable,omitempty"`
	TBStoreStrategy string   `yaml:"tb_store_strategy,omitempty"`
	TBRedisURL      []string `yaml:"tb_redis_url,omitempty"`
	TBCapacity      int      `yaml:"tb_capacity,omitempty"`
	TBFillRate      int      `yaml:"tb_fill_rate,omitempty"`
	TBExpired       int      `yaml:"tb_expired,omitempty"`

	SignSecretKey string `yaml:"sign_secret_key,omitempty"`
	CFSiteKey     string `yaml:"cf_site_key,omitempty"`
	CFSecretKey   string `yaml:"cf_secret_key,omitempty"`

	DisableWebUI bool `yaml:"disable_webui,omitempty"`
}

// Flag names shared by BindFlags and Argv.
const (
	flagConfig          = "config"
	flagHost            = "host"
	flagPort            = "port"
	flagWorkers         = "workers"
	flagProxies         = "proxies"
	flagAPIPrefix       = "api-prefix"
	flagTLSCert         = "tls-cert"
	flagTLSKey          = "tls-key"
	flagTimeout         = "timeout"
	flagConnectTimeout  = "connect-timeout"
	flagTCPKeepalive    = "tcp-keepalive"
	flagConcurrentLimit = "concurrent-limit"
	flagTBEnable        = "tb-enable"
	flagTBStoreStrategy = "tb-store-strategy"
	flagTBRedisURL      = "tb-redis-url"
	flagTBCapacity      = "tb-capacity"
	flagTBFillRate      = "tb-fill-rate"
	flagTBExpired       = "tb-expired"
	flagSignSecretKey   = "sign-secret-key"
	flagCFSiteKey       = "cf-site-key"
	flagCFSecretKey     = "cf-secret-key"
	flagDisableWebUI    = "disable-webui"
)

// BindFlags registers the serve flags on fs, writing into a.
// Flag defaults are left at zero so Resolve can tell "unset" apart.
func BindFlags(fs *pflag.FlagSet, a *ServeArgs) {
	fs.StringVarP(&a.Config, flagConfig, "C", "", "Config file path; replaces every other serve flag")
	fs.StringVarP(&a.Host, flagHost, "H", "", "Listen address (default "+DefaultHost+")")
	fs.IntVarP(&a.Port, flagPort, "P", 0, "Listen port (default "+strconv.Itoa(DefaultPort)+")")
	fs.IntVarP(&a.Workers, flagWorkers, "W", 0, "Worker threads (default "+strconv.Itoa(DefaultWorkers)+")")
	fs.StringSliceVarP(&a.Proxies, flagProxies, "x", nil, "Upstream proxy URL, repeatable")
	fs.StringVar(&a.APIPrefix, flagAPIPrefix, "", "Path prefix for the API routes")
	fs.StringVar(&a.TLSCert, flagTLSCert, "", "TLS certificate file")
	fs.StringVar(&a.TLSKey, flagTLSKey, "", "TLS private key file")
	fs.IntVar(&a.Timeout, flagTimeout, 0, "Request timeout in seconds (default "+strconv.Itoa(DefaultTimeoutSeconds)+")")
	fs.IntVar(&a.ConnectTimeout, flagConnectTimeout, 0, "Upstream connect timeout in seconds (default "+strconv.Itoa(DefaultConnectTimeoutSeconds)+")")
	fs.IntVar(&a.TCPKeepalive, flagTCPKeepalive, 0, "TCP keepalive in seconds (default "+strconv.Itoa(DefaultTCPKeepaliveSeconds)+")")
	fs.IntVar(&a.ConcurrentLimit, flagConcurrentLimit, 0, "Maximum in-flight requests (default "+strconv.Itoa(DefaultConcurrentLimit)+")")
	fs.BoolVar(&a.TBEnable, flagTBEnable, false, "Enable token bucket rate limiting")
	fs.StringVar(&a.TBStoreStrategy, flagTBStoreStrategy, "", "Token bucket store: mem or redis (default "+StoreMem+")")
	fs.StringSliceVar(&a.TBRedisURL, flagTBRedisURL, nil, "Token bucket redis endpoint, repeatable (default "+DefaultRedisURL+")")
	fs.IntVar(&a.TBCapacity, flagTBCapacity, 0, "Token bucket capacity (default "+strconv.Itoa(DefaultTBCapacity)+")")
	fs.IntVar(&a.TBFillRate, flagTBFillRate, 0, "Token bucket fill rate per second (default "+strconv.Itoa(DefaultTBFillRate)+")")
	fs.IntVar(&a.TBExpired, flagTBExpired, 0, "Token bucket expiry in seconds (default "+strconv.Itoa(DefaultTBExpiredSeconds)+")")
	fs.StringVar(&a.SignSecretKey, flagSignSecretKey, "", "Shared secret for request signatures")
	fs.StringVar(&a.CFSiteKey, flagCFSiteKey, "", "CAPTCHA site key")
	fs.StringVar(&a.CFSecretKey, flagCFSecretKey, "", "CAPTCHA secret key")
	fs.BoolVar(&a.DisableWebUI, flagDisableWebUI, false, "Disable the web UI")
}

// Argv encodes the set fields back into flags, in the form BindFlags parses.
// The detached child is re-executed with these.
func (a ServeArgs) Argv() []string {
	var argv []string
	str := func(name, v string) {
		if v != "" {
			argv = append(argv, "--"+name, v)
		}
	}
	num := func(name string, v int) {
		if v != 0 {
			argv = append(argv, "--"+name, strconv.Itoa(v))
		}
	}
	flag := func(name string, v bool) {
		if v {
			argv = append(argv, "--"+name)
		}
	}
	list := func(name string, vs []string) {
		for _, v := range vs {
			argv = append(argv, "--"+name, v)
		}
	}

	str(flagConfig, a.Config)
	str(flagHost, a.Host)
	num(flagPort, a.Port)
	num(flagWorkers, a.Workers)
	list(flagProxies, a.Proxies)
	str(flagAPIPrefix, a.APIPrefix)
	str(flagTLSCert, a.TLSCert)
	str(flagTLSKey, a.TLSKey)
	num(flagTimeout, a.Timeout)
	num(flagConnectTimeout, a.ConnectTimeout)
	num(flagTCPKeepalive, a.TCPKeepalive)
	num(flagConcurrentLimit, a.ConcurrentLimit)
	flag(flagTBEnable, a.TBEnable)
	str(flagTBStoreStrategy, a.TBStoreStrategy)
	list(flagTBRedisURL, a.TBRedisURL)
	num(flagTBCapacity, a.TBCapacity)
	num(flagTBFillRate, a.TBFillRate)
	num(flagTBExpired, a.TBExpired)
	str(flagSignSecretKey, a.SignSecretKey)
	str(flagCFSiteKey, a.CFSiteKey)
	str(flagCFSecretKey, a.CFSecretKey)
	flag(flagDisableWebUI, a.DisableWebUI)

	return argv
}
