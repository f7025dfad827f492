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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// ErrInvalidUTF8 is yielded for a log line that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("line is not valid UTF-8")

// maxReadFailures ends a pass after this many consecutive read errors.
const maxReadFailures = 3

// LogTail reads the detached service's output once, front to back.
//
// A LogTail is single use: the first of Lines or Follow consumes it and any
// later call yields nothing.
type LogTail struct {
	path     string
	file     *os.File
	reader   *bufio.Reader
	pending  strings.Builder
	line     int
	consumed bool
}

// OpenLogTail opens path for reading. An absent file yields an error matching
// os.ErrNotExist.
func OpenLogTail(path string) (*LogTail, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, pkgerrors.E(pkgerrors.FileSystemError, "open log", path, err)
	}
	return &LogTail{path: path, file: f, reader: bufio.NewReader(f)}, nil
}

// Close releases the file.
func (t *LogTail) Close() error {
	return t.file.Close()
}

// Lines yields every line up to end of file, in file order, without the
// trailing newline. A line that cannot be read or decoded is yielded as an
// error and iteration moves on to the next one.
func (t *LogTail) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if t.consume() {
			return
		}
		t.readLines(yield, true)
	}
}

// Follow yields the existing lines like Lines, then keeps yielding lines as
// they are appended until ctx is done or the file is removed or renamed.
// A trailing line is held back until its newline arrives.
func (t *LogTail) Follow(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if t.consume() {
			return
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			yield("", pkgerrors.E(pkgerrors.FileSystemError, "watch log", t.path, err))
			return
		}
		defer watcher.Close()

		if err := watcher.Add(t.path); err != nil {
			yield("", pkgerrors.E(pkgerrors.FileSystemError, "watch log", t.path, err))
			return
		}

		for {
			if !t.readLines(yield, false) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok || !yield("", pkgerrors.E(pkgerrors.FileSystemError, "watch log", t.path, err)) {
					return
				}
			}
		}
	}
}

func (t *LogTail) consume() bool {
	done := t.consumed
	t.consumed = true
	return done
}

// readLines yields complete lines until EOF. With flush set, a final line
// lacking a newline is yielded as well. It returns false once the consumer
// stops or the failure bound is hit.
func (t *LogTail) readLines(yield func(string, error) bool, flush bool) bool {
	failures := 0
	for {
		chunk, err := t.reader.ReadString('\n')
		t.pending.WriteString(chunk)

		switch {
		case err == nil:
			failures = 0
			if !t.emit(yield) {
				return false
			}
		case errors.Is(err, io.EOF):
			if flush && t.pending.Len() > 0 {
				return t.emit(yield)
			}
			return true
		default:
			failures++
			t.line++
			t.pending.Reset()
			readErr := pkgerrors.E(pkgerrors.FileSystemError, "read log", t.path,
				fmt.Errorf("line %d: %w", t.line, err))
			if !yield("", readErr) || failures >= maxReadFailures {
				return false
			}
		}
	}
}

func (t *LogTail) emit(yield func(string, error) bool) bool {
	t.line++
	text := strings.TrimSuffix(t.pending.String(), "\n")
	text = strings.TrimSuffix(text, "\r")
	t.pending.Reset()

	if !utf8.ValidString(text) {
		return yield("", fmt.Errorf("%s line %d: %w", t.path, t.line, ErrInvalidUTF8))
	}
	return yield(text, nil)
}
