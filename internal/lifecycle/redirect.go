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

package lifecycle

import (
	"os"
	"path/filepath"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

const (
	// redirectPerm is the mode of the detached service's output files.
	redirectPerm = 0o755

	// DefaultUmask is the detached service's file creation mask.
	DefaultUmask = 0o027
)

// CreateRedirectFiles creates (or truncates) each output file with mode
// 0755, creating missing parent directories.
func CreateRedirectFiles(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return pkgerrors.E(pkgerrors.FileSystemError, "create log directory", filepath.Dir(p), err)
		}
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, redirectPerm)
		if err != nil {
			return pkgerrors.E(pkgerrors.FileSystemError, "create output file", p, err)
		}
		// The umask may have narrowed the mode on creation.
		err = f.Chmod(redirectPerm)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return pkgerrors.E(pkgerrors.FileSystemError, "create output file", p, err)
		}
	}
	return nil
}
