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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/relay/pkg/errors"
)

func TestGenerateTemplate_ResolvesToDefaults(t *testing.T) {
	target := filepath.Join(t.TempDir(), "relay-serve.yaml")

	path, err := GenerateTemplate(true, target)
	require.NoError(t, err)
	assert.Equal(t, target, path)

	cfg, err := Resolve(ServeArgs{Config: target}, false)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host.String())
	assert.Equal(t, uint16(7999), cfg.Port)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.FillRate)
	assert.Equal(t, 86400*time.Second, cfg.RateLimit.Expired)
	assert.Equal(t, StoreMem, cfg.RateLimit.StoreStrategy)
	assert.Equal(t, []string{DefaultRedisURL}, cfg.RateLimit.RedisURLs)
	assert.False(t, cfg.TLSEnabled())
}

func TestGenerateTemplate_NoOverwriteCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "relay-serve.yaml")

	_, err := GenerateTemplate(false, target)
	require.NoError(t, err)

	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err), "template file should not exist")
	_, err = os.Stat(filepath.Join(dir, "nested"))
	assert.True(t, os.IsNotExist(err), "parent directory should not exist")
}

func TestGenerateTemplate_DirectoryTarget(t *testing.T) {
	dir := t.TempDir()

	for _, overwrite := range []bool{true, false} {
		_, err := GenerateTemplate(overwrite, dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.TargetIsDirectory)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateTemplate_CreatesParentsAndReplaces(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "relay.yaml")

	_, err := GenerateTemplate(true, target)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("port: 1\n"), 0o600))

	_, err = GenerateTemplate(true, target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, Template, string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestGenerateTemplate_DefaultTarget(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path, err := GenerateTemplate(true, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplateName, filepath.Base(path))

	_, err = os.Stat(filepath.Join(dir, DefaultTemplateName))
	assert.NoError(t, err)
}
