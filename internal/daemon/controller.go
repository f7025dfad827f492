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

package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/tombee/relay/internal/config"
	"github.com/tombee/relay/internal/lifecycle"
	internallog "github.com/tombee/relay/internal/log"
	pkgerrors "github.com/tombee/relay/pkg/errors"
)

// Launcher runs the service until ctx is done or it fails.
type Launcher func(ctx context.Context, cfg config.Resolved) error

// Options holds the collaborators of a Controller. Zero fields get the
// platform defaults.
type Options struct {
	Logger *slog.Logger

	// Detacher forks the background service.
	Detacher lifecycle.Detacher

	// RequireRoot gates every mutating operation.
	RequireRoot func(op string) error

	// InvokingUser finds the identity the service drops to.
	InvokingUser func() (*lifecycle.Identity, error)

	// Terminate and WaitForExit act on the recorded pid.
	Terminate   func(pid int) (lifecycle.Delivery, error)
	WaitForExit func(ctx context.Context, pid int, timeout time.Duration) error

	// ChildArgs is the argv prefix of the re-executed child, program name
	// first. The serve flags are appended to it.
	ChildArgs []string

	// Unsupported makes every background operation fail with
	// UnsupportedPlatform. It is forced on where fork is unavailable.
	Unsupported bool
}

// Controller starts, stops and inspects the background service through its
// pid record.
type Controller struct {
	env    lifecycle.Environment
	launch Launcher
	opts   Options
	logger *slog.Logger
	audit  *lifecycle.LifecycleLogger
}

// New creates a controller for the files named by env.
func New(env lifecycle.Environment, launch Launcher, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = internallog.New(internallog.FromEnv())
	}
	if opts.Detacher == nil {
		opts.Detacher = lifecycle.NewDetacher()
	}
	if opts.RequireRoot == nil {
		opts.RequireRoot = lifecycle.RequireRoot
	}
	if opts.InvokingUser == nil {
		opts.InvokingUser = lifecycle.InvokingUser
	}
	if opts.Terminate == nil {
		opts.Terminate = lifecycle.Terminate
	}
	if opts.WaitForExit == nil {
		opts.WaitForExit = lifecycle.WaitForExit
	}
	if len(opts.ChildArgs) == 0 {
		opts.ChildArgs = []string{os.Args[0], "serve", "start"}
	}
	if !lifecycle.PlatformSupported {
		opts.Unsupported = true
	}

	return &Controller{
		env:    env,
		launch: launch,
		opts:   opts,
		logger: internallog.WithComponent(opts.Logger, "daemon"),
		audit:  lifecycle.NewLifecycleLogger(env.LifecycleLog),
	}
}

// Environment returns the file locations the controller works on.
func (c *Controller) Environment() lifecycle.Environment {
	return c.env
}

func (c *Controller) supported(op string) error {
	if c.opts.Unsupported {
		return pkgerrors.E(pkgerrors.UnsupportedPlatform, op, "", nil)
	}
	return nil
}

// Start detaches the service into the background.
//
// In the parent it returns Started once the child is forked, or
// AlreadyRunning if the pid record is held. In the re-executed child it
// runs the service and returns Served when the launcher returns.
func (c *Controller) Start(ctx context.Context, args config.ServeArgs) (StartResult, error) {
	if err := c.supported("start"); err != nil {
		return StartResult{}, err
	}

	// The child runs unprivileged, so it is recognised before the root check.
	if c.opts.Detacher.IsChild() {
		return c.continueChild(ctx, args)
	}

	if err := c.opts.RequireRoot("start"); err != nil {
		return StartResult{}, err
	}

	pids := c.env.PIDFileManager()
	running, claimed, err := c.admit(pids)
	if err != nil {
		c.auditErr(c.audit.LogStartFailure(err))
		return StartResult{}, err
	}
	if !claimed {
		c.logger.Info("service already running", internallog.PIDKey, running)
		c.auditErr(c.audit.LogAlreadyRunning(running))
		return StartResult{Outcome: AlreadyRunning, PID: running}, nil
	}

	// From here on a failure must hand the pid record back.
	result, err := c.detach(ctx, args)
	if err != nil {
		if rmErr := pids.Remove(); rmErr != nil {
			c.logger.Warn("failed to remove pid file", internallog.Error(rmErr))
		}
		c.auditErr(c.audit.LogStartFailure(err))
		return StartResult{}, err
	}
	return result, nil
}

// admit claims the pid record. When the record is held by a valid pid it
// returns that pid with claimed false. A corrupt record is discarded and the
// claim retried once.
func (c *Controller) admit(pids *lifecycle.PIDFileManager) (running int, claimed bool, err error) {
	for attempt := 0; ; attempt++ {
		err := pids.Create(os.Getpid())
		if err == nil {
			return 0, true, nil
		}
		if !errors.Is(err, lifecycle.ErrPIDFileExists) {
			return 0, false, err
		}

		pid, err := pids.Read()
		switch {
		case err == nil:
			return pid, false, nil
		case attempt > 0:
			return 0, false, err
		case errors.Is(err, os.ErrNotExist):
			// Removed between our create and read; try again.
		case errors.Is(err, pkgerrors.PidCorrupt):
			c.logger.Warn("discarding corrupt pid file", internallog.PathKey, pids.Path(), internallog.Error(err))
			c.auditErr(c.audit.LogStalePID(0, err.Error()))
			if rmErr := pids.Remove(); rmErr != nil {
				return 0, false, rmErr
			}
		default:
			return 0, false, err
		}
	}
}

func (c *Controller) detach(ctx context.Context, args config.ServeArgs) (StartResult, error) {
	if err := lifecycle.CreateRedirectFiles(c.env.Stdout, c.env.Stderr); err != nil {
		return StartResult{}, err
	}

	// The child runs from another directory; pin relative paths now.
	args, err := config.NormalizePaths(args)
	if err != nil {
		return StartResult{}, err
	}
	// Surface config errors here rather than in the child's stderr file.
	if _, err := config.Resolve(args, false); err != nil {
		return StartResult{}, err
	}

	dc := c.daemonContext(args)
	if id, err := c.opts.InvokingUser(); err != nil {
		c.logger.Warn("could not determine the invoking user; the service keeps root privileges",
			internallog.Error(err))
	} else {
		dc.User = id
		dc.BeforeDetach = func() error {
			return id.Chown(c.env.Stdout, c.env.Stderr)
		}
	}

	d, err := c.opts.Detacher.Detach(dc)
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			err = pkgerrors.E(pkgerrors.DaemonizeFailed, "detach", "", err)
		}
		return StartResult{}, err
	}

	if d.Continuation == lifecycle.ChildContinues {
		return c.serve(ctx, args, d.PID)
	}

	c.logger.Debug("service detached", internallog.PIDKey, d.PID)
	c.auditErr(c.audit.LogStart(d.PID, dc.Args, args.Config))
	return StartResult{Outcome: Started, PID: d.PID}, nil
}

func (c *Controller) daemonContext(args config.ServeArgs) lifecycle.DaemonContext {
	argv := make([]string, 0, len(c.opts.ChildArgs)+8)
	argv = append(argv, c.opts.ChildArgs...)
	argv = append(argv, args.Argv()...)

	return lifecycle.DaemonContext{
		WorkDir: c.env.WorkDir,
		PIDFile: c.env.PIDFile,
		Stdout:  c.env.Stdout,
		Stderr:  c.env.Stderr,
		Umask:   lifecycle.DefaultUmask,
		Args:    argv,
	}
}

// continueChild finishes the detach on the child side and runs the service.
// The child never removes the pid record; stop owns that.
func (c *Controller) continueChild(ctx context.Context, args config.ServeArgs) (StartResult, error) {
	d, err := c.opts.Detacher.Detach(c.daemonContext(args))
	if err != nil {
		return StartResult{}, err
	}
	return c.serve(ctx, args, d.PID)
}

func (c *Controller) serve(ctx context.Context, args config.ServeArgs, pid int) (StartResult, error) {
	cfg, err := config.Resolve(args, false)
	if err != nil {
		return StartResult{}, err
	}
	c.logger.Info("service running in background", internallog.PIDKey, pid)
	if err := c.launch(ctx, cfg); err != nil {
		return StartResult{Outcome: Served, PID: pid}, pkgerrors.Wrap(err, "service exited")
	}
	return StartResult{Outcome: Served, PID: pid}, nil
}

// Stop interrupts the recorded process and clears the pid record.
//
// It does not wait for the process to exit. A missing record or process is
// reported as NotRunning; a signal that cannot be delivered for another
// reason is returned as a warning and the record is still cleared.
func (c *Controller) Stop(ctx context.Context) (StopResult, error) {
	if err := c.supported("stop"); err != nil {
		return StopResult{}, err
	}
	if err := c.opts.RequireRoot("stop"); err != nil {
		return StopResult{}, err
	}

	pids := c.env.PIDFileManager()
	pid, err := pids.Read()
	if errors.Is(err, os.ErrNotExist) {
		c.auditErr(c.audit.LogStopNotRunning())
		return StopResult{Outcome: NotRunning}, nil
	}
	if err != nil {
		return StopResult{}, err
	}

	result := StopResult{PID: pid}
	delivery, sigErr := c.opts.Terminate(pid)
	switch {
	case sigErr != nil:
		result.Outcome = SignalFailed
		result.Warning = sigErr
		c.logger.Warn("failed to signal service", internallog.PIDKey, pid, internallog.Error(sigErr))
	case delivery == lifecycle.NotFound:
		result.Outcome = NotRunning
	default:
		result.Outcome = Stopped
	}
	c.auditErr(c.audit.LogStop(pid, delivery, sigErr))

	if err := pids.Remove(); err != nil {
		c.logger.Warn("failed to remove pid file", internallog.PathKey, pids.Path(), internallog.Error(err))
	}
	return result, nil
}

// Restart stops the service, waits up to timeout for the old process to
// exit, then starts it again. Stop failures are logged and never prevent
// the start.
func (c *Controller) Restart(ctx context.Context, args config.ServeArgs, timeout time.Duration) (RestartResult, error) {
	if err := c.supported("restart"); err != nil {
		return RestartResult{}, err
	}
	if err := c.opts.RequireRoot("restart"); err != nil {
		return RestartResult{}, err
	}

	var result RestartResult
	result.Stop, result.StopErr = c.Stop(ctx)
	switch {
	case result.StopErr != nil:
		c.logger.Warn("stop failed during restart", internallog.Error(result.StopErr))
	case result.Stop.Outcome == Stopped:
		if err := c.opts.WaitForExit(ctx, result.Stop.PID, timeout); err != nil {
			c.logger.Warn("previous instance still running",
				internallog.PIDKey, result.Stop.PID,
				internallog.DurationKey, timeout.Milliseconds(),
				internallog.Error(err))
		}
	}

	var err error
	result.Start, err = c.Start(ctx, args)
	return result, err
}

// Status reports the pid record. A stale record still reads as running.
func (c *Controller) Status() (Status, error) {
	if err := c.supported("status"); err != nil {
		return Status{}, err
	}

	pid, err := c.env.PIDFileManager().Read()
	if errors.Is(err, os.ErrNotExist) {
		return Status{PIDFile: c.env.PIDFile}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Running: true, PID: pid, PIDFile: c.env.PIDFile}, nil
}

// OpenLog opens the service output for one pass.
func (c *Controller) OpenLog() (*lifecycle.LogTail, error) {
	if err := c.supported("log"); err != nil {
		return nil, err
	}
	return lifecycle.OpenLogTail(c.env.Stdout)
}

func (c *Controller) auditErr(err error) {
	if err != nil {
		c.logger.Debug("failed to write lifecycle log", internallog.Error(err))
	}
}
