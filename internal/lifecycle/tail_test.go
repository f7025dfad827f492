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
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tailResult struct {
	lines []string
	errs  []error
}

func collect(seq iter.Seq2[string, error]) tailResult {
	var r tailResult
	for line, err := range seq {
		if err != nil {
			r.errs = append(r.errs, err)
			continue
		}
		r.lines = append(r.lines, line)
	}
	return r
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.out")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLogTail_Lines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty file", "", nil},
		{"single line", "listening on 0.0.0.0:7999\n", []string{"listening on 0.0.0.0:7999"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tail, err := OpenLogTail(writeLog(t, tt.content))
			require.NoError(t, err)
			defer tail.Close()

			got := collect(tail.Lines())
			assert.Empty(t, got.errs)
			assert.Equal(t, tt.want, got.lines)
		})
	}
}

func TestLogTail_InvalidUTF8ContinuesPastBadLine(t *testing.T) {
	tail, err := OpenLogTail(writeLog(t, "first\n\xff\xfe bad\nthird\n"))
	require.NoError(t, err)
	defer tail.Close()

	var (
		lines []string
		errs  []error
	)
	for line, err := range tail.Lines() {
		lines = append(lines, line)
		errs = append(errs, err)
	}

	require.Len(t, lines, 3)
	assert.Equal(t, "first", lines[0])
	assert.NoError(t, errs[0])
	assert.True(t, errors.Is(errs[1], ErrInvalidUTF8))
	assert.Equal(t, "third", lines[2])
	assert.NoError(t, errs[2])
}

func TestLogTail_SinglePass(t *testing.T) {
	tail, err := OpenLogTail(writeLog(t, "a\nb\n"))
	require.NoError(t, err)
	defer tail.Close()

	seq := tail.Lines()
	assert.Equal(t, []string{"a", "b"}, collect(seq).lines)
	assert.Empty(t, collect(seq).lines)
	assert.Empty(t, collect(tail.Lines()).lines)
}

func TestLogTail_EarlyBreak(t *testing.T) {
	tail, err := OpenLogTail(writeLog(t, "a\nb\nc\n"))
	require.NoError(t, err)
	defer tail.Close()

	var got []string
	for line := range tail.Lines() {
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLogTail_MissingFile(t *testing.T) {
	_, err := OpenLogTail(filepath.Join(t.TempDir(), "absent.out"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogTail_Follow(t *testing.T) {
	path := writeLog(t, "existing\n")
	tail, err := OpenLogTail(path)
	require.NoError(t, err)
	defer tail.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lines := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for line, err := range tail.Follow(ctx) {
			if err == nil {
				lines <- line
			}
		}
	}()

	assert.Equal(t, "existing", <-lines)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.WriteString("appended\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case line := <-lines:
		assert.Equal(t, "appended", line)
	case <-ctx.Done():
		t.Fatal("appended line was not followed")
	}

	cancel()
	<-done
}
