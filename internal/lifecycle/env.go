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
	"path/filepath"
)

// Environment names every filesystem location the daemon controls touch.
// Operations take it explicitly so tests can root it in a temp directory.
type Environment struct {
	// PIDFile is the pid record of the background instance.
	PIDFile string
	// Stdout receives the detached service's standard output and is what
	// LogTail reads.
	Stdout string
	// Stderr receives the detached service's standard error.
	Stderr string
	// LifecycleLog is the JSON-lines audit log of start and stop events.
	LifecycleLog string
	// WorkDir is the detached service's working directory.
	WorkDir string
}

// DefaultEnvironment returns the system locations.
func DefaultEnvironment() Environment {
	return Environment{
		PIDFile:      "/var/run/relay.pid",
		Stdout:       "/var/log/relay.out",
		Stderr:       "/var/log/relay.err",
		LifecycleLog: "/var/log/relay-lifecycle.log",
		WorkDir:      "/",
	}
}

// RootedEnvironment places every file under dir. The working directory is
// dir itself.
func RootedEnvironment(dir string) Environment {
	return Environment{
		PIDFile:      filepath.Join(dir, "relay.pid"),
		Stdout:       filepath.Join(dir, "relay.out"),
		Stderr:       filepath.Join(dir, "relay.err"),
		LifecycleLog: filepath.Join(dir, "relay-lifecycle.log"),
		WorkDir:      dir,
	}
}

// PIDFileManager returns a manager for e.PIDFile.
func (e Environment) PIDFileManager() *PIDFileManager {
	return NewPIDFileManager(e.PIDFile)
}
