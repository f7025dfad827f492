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
	"os"
	"syscall"

	"github.com/sevlyar/go-daemon"
	"golang.org/x/sys/unix"

	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// PlatformSupported reports whether background control works here.
const PlatformSupported = true

// ForkDetacher detaches by re-executing the binary in a new session.
// The child finds itself through an environment marker, then takes over the
// pid file descriptor the parent locked and writes its own pid.
type ForkDetacher struct{}

// NewDetacher returns the platform Detacher.
func NewDetacher() Detacher {
	return ForkDetacher{}
}

// IsChild implements Detacher.
func (ForkDetacher) IsChild() bool {
	return daemon.WasReborn()
}

// Detach implements Detacher.
func (ForkDetacher) Detach(dc DaemonContext) (Detachment, error) {
	if !daemon.WasReborn() && dc.BeforeDetach != nil {
		if err := dc.BeforeDetach(); err != nil {
			return Detachment{}, pkgerrors.E(pkgerrors.DaemonizeFailed, "prepare detach", "", err)
		}
	}

	ctx := &daemon.Context{
		PidFileName: dc.PIDFile,
		PidFilePerm: pidFilePerm,
		LogFileName: dc.Stdout,
		LogFilePerm: redirectPerm,
		WorkDir:     dc.WorkDir,
		Umask:       dc.Umask,
		Args:        dc.Args,
	}
	if dc.User != nil {
		ctx.Credential = &syscall.Credential{Uid: dc.User.UID, Gid: dc.User.GID}
	}

	child, err := ctx.Reborn()
	if err != nil {
		return Detachment{}, pkgerrors.E(pkgerrors.DaemonizeFailed, "detach", "", err)
	}
	if child != nil {
		return Detachment{Continuation: ParentExits, PID: child.Pid}, nil
	}

	// go-daemon points both stdout and stderr at the log file.
	if err := redirectStderr(dc.Stderr); err != nil {
		return Detachment{}, pkgerrors.E(pkgerrors.FileSystemError, "redirect stderr", dc.Stderr, err)
	}

	return Detachment{Continuation: ChildContinues, PID: os.Getpid()}, nil
}

func redirectStderr(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, redirectPerm)
	if err != nil {
		return err
	}
	defer f.Close()
	return unix.Dup2(int(f.Fd()), int(os.Stderr.Fd()))
}
