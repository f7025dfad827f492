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
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokingUser(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)

	t.Run("unset", func(t *testing.T) {
		t.Setenv(SudoUserEnv, "")
		_, err := InvokingUser()
		assert.True(t, errors.Is(err, ErrNoInvokingUser))
	})

	t.Run("known user", func(t *testing.T) {
		t.Setenv(SudoUserEnv, current.Username)
		id, err := InvokingUser()
		require.NoError(t, err)
		assert.Equal(t, current.Username, id.Name)
		assert.Equal(t, current.Uid, strconv.FormatUint(uint64(id.UID), 10))
		assert.Equal(t, current.Gid, strconv.FormatUint(uint64(id.GID), 10))
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Setenv(SudoUserEnv, "relay-no-such-user-8c1f")
		_, err := InvokingUser()
		assert.Error(t, err)
	})
}

func TestIdentity_Chown(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)
	id, err := LookupIdentity(current.Username)
	require.NoError(t, err)

	dir := t.TempDir()
	existing := filepath.Join(dir, "relay.out")
	require.NoError(t, os.WriteFile(existing, nil, 0o644))

	// Chown to yourself is always permitted; missing paths are skipped.
	assert.NoError(t, id.Chown(existing, filepath.Join(dir, "missing.err")))
}
