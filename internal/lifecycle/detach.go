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

// Continuation says which side of a detach the caller is on.
type Continuation int

const (
	// ChildContinues means this process is the detached service and should
	// go on to run it.
	ChildContinues Continuation = iota + 1
	// ParentExits means the service was handed to a child; the caller should
	// report success and return.
	ParentExits
)

func (c Continuation) String() string {
	switch c {
	case ChildContinues:
		return "child_continues"
	case ParentExits:
		return "parent_exits"
	default:
		return "unknown"
	}
}

// DaemonContext describes one detach. It is built fresh for every start.
type DaemonContext struct {
	// WorkDir is the child's working directory.
	WorkDir string
	// PIDFile receives the child's pid once it is running.
	PIDFile string
	// Stdout and Stderr are the child's redirect targets. Both must exist.
	Stdout string
	Stderr string
	// Umask is the child's file creation mask.
	Umask int
	// User, if set, is the identity the child runs as.
	User *Identity
	// Args is the child's full argv, program name first.
	Args []string
	// BeforeDetach runs in the parent while it still holds root, right
	// before the fork.
	BeforeDetach func() error
}

// Detachment is the result of a successful detach.
type Detachment struct {
	Continuation Continuation
	// PID is the detached child's pid, as seen from either side.
	PID int
}

// Detacher splits the process into a background service and a parent that
// exits. Exactly one side sees each Continuation.
type Detacher interface {
	// IsChild reports whether this process was started by a Detach.
	IsChild() bool
	// Detach forks the child in the parent and finishes its setup in the
	// child.
	Detach(dc DaemonContext) (Detachment, error)
}
