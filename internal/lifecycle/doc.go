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

/*
Package lifecycle holds the OS-facing pieces of background service control.

# PID Record

The pid file is the only record of a background instance. Creating it with
O_EXCL is the admission gate for start; its presence with a positive integer
means "running", with no liveness check:

	pids := lifecycle.NewPIDFileManager(env.PIDFile)
	if err := pids.Create(os.Getpid()); errors.Is(err, lifecycle.ErrPIDFileExists) {
	    // another start won
	}

# Signals

Terminate sends SIGINT and reports whether the process existed. It never
waits; WaitForExit is a separate bounded poll:

	if d, err := lifecycle.Terminate(pid); err == nil && d == lifecycle.Delivered {
	    _ = lifecycle.WaitForExit(ctx, pid, 10*time.Second)
	}

# Detaching

A Detacher splits the process in two. The parent sees ParentExits and the
re-executed child sees ChildContinues:

	d, err := lifecycle.NewDetacher().Detach(dc)
	if err != nil {
	    // nothing was started
	}
	if d.Continuation == lifecycle.ParentExits {
	    return
	}
	// run the service

On platforms without fork and POSIX signals NewDetacher, Terminate and
RequireRoot fail with UnsupportedPlatform.

# Log Tail

	tail, err := lifecycle.OpenLogTail(env.Stdout)
	if err != nil {
	    return err
	}
	defer tail.Close()
	for line, err := range tail.Lines() {
	    // a per-line err does not end the loop
	}

# Lifecycle Logging

Start and stop events are appended to a JSON-lines audit log:

	audit := lifecycle.NewLifecycleLogger(env.LifecycleLog)
	audit.LogStop(pid, lifecycle.Delivered, nil)
*/
package lifecycle
