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

//go:build !(linux || darwin || freebsd)

package lifecycle

import (
	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// RequireRoot fails with UnsupportedPlatform; background control needs fork
// and POSIX signals.
func RequireRoot(op string) error {
	return pkgerrors.E(pkgerrors.UnsupportedPlatform, op, "", nil)
}
