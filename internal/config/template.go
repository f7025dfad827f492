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
	"os"
	"path/filepath"

	"github.com/tombee/relay/pkg/errors"
)

// DefaultTemplateName is the file written when no target is given.
const DefaultTemplateName = "relay-serve.yaml"

// Template is the config scaffold. Optional keys are commented out.
const Template = `host: 0.0.0.0
port: 7999
workers: 1
# proxies: []
timeout: 600
connect_timeout: 60
tcp_keepalive: 60
# tls_cert:
# tls_key:
# api_prefix:
concurrent_limit: 1024
tb_enable: false
tb_store_strategy: mem
tb_redis_url:
  - redis://127.0.0.1:6379
tb_capacity: 60
tb_fill_rate: 1
tb_expired: 86400
# sign_secret_key:
# cf_site_key:
# cf_secret_key:
disable_webui: false
`

// GenerateTemplate writes Template to target and returns the effective path.
//
// An empty target means DefaultTemplateName in the current directory. A
// target naming an existing directory fails with TargetIsDirectory. Unless
// overwrite is set nothing is written: only the stat checks run.
func GenerateTemplate(overwrite bool, target string) (string, error) {
	if target == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.E(errors.FileSystemError, "resolve working directory", "", err)
		}
		target = filepath.Join(wd, DefaultTemplateName)
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target, errors.E(errors.TargetIsDirectory, "generate template", target, errors.New("is a directory"))
	}

	if !overwrite {
		return target, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return target, errors.E(errors.FileSystemError, "create directory", filepath.Dir(target), err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return target, errors.E(errors.FileSystemError, "create template", target, err)
	}
	defer f.Close()

	// An existing file keeps its old mode through O_TRUNC.
	if err := f.Chmod(0o755); err != nil {
		return target, errors.E(errors.FileSystemError, "chmod template", target, err)
	}
	if _, err := f.WriteString(Template); err != nil {
		return target, errors.E(errors.FileSystemError, "write template", target, err)
	}
	return target, f.Close()
}
