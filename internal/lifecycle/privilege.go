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
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// SudoUserEnv names the variable sudo sets to the invoking user's login.
const SudoUserEnv = "SUDO_USER"

// ErrNoInvokingUser is returned when SUDO_USER is unset.
var ErrNoInvokingUser = errors.New(SudoUserEnv + " is not set")

// Identity is an unprivileged account the detached service runs as.
type Identity struct {
	Name string
	UID  uint32
	GID  uint32
}

// InvokingUser recovers the account that ran sudo.
func InvokingUser() (*Identity, error) {
	name := os.Getenv(SudoUserEnv)
	if name == "" {
		return nil, ErrNoInvokingUser
	}
	return LookupIdentity(name)
}

// LookupIdentity resolves a login name to its uid and primary gid.
func LookupIdentity(name string) (*Identity, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "lookup user %q", name)
	}

	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("user %q has non-numeric uid %q", name, u.Uid)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("user %q has non-numeric gid %q", name, u.Gid)
	}

	return &Identity{Name: u.Username, UID: uint32(uid), GID: uint32(gid)}, nil
}

// Chown hands each existing path to id. Missing paths are skipped.
func (id *Identity) Chown(paths ...string) error {
	for _, p := range paths {
		if err := os.Chown(p, int(id.UID), int(id.GID)); err != nil && !os.IsNotExist(err) {
			return pkgerrors.Wrapf(err, "hand %s to uid %d", p, id.UID)
		}
	}
	return nil
}
