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

//go:build linux || darwin || freebsd

package lifecycle

import (
	"errors"

	"golang.org/x/sys/unix"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// RequireRoot fails with PermissionDenied unless the effective uid is 0.
func RequireRoot(op string) error {
	if unix.Geteuid() != 0 {
		return pkgerrors.E(pkgerrors.PermissionDenied, op, "", errors.New("root privileges are required"))
	}
	return nil
}
