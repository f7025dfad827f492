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

package serve

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/relay/internal/commands/shared"
	"github.com/tombee/relay/internal/config"
	"github.com/tombee/relay/internal/daemon"
	internallog "github.com/tombee/relay/internal/log"
)

// defaultStopTimeout bounds how long restart waits for the old instance.
const defaultStopTimeout = 10 * time.Second

func newStartCommand(deps Deps) *cobra.Command {
	var args config.ServeArgs

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start relay in the background",
		Long: `Start the relay gateway as a background process.

Requires root. The pid is recorded in ` + deps.Env.PIDFile + ` and the
gateway output goes to ` + deps.Env.Stdout + ` and ` + deps.Env.Stderr + `.
When run through sudo, the gateway drops to the invoking user.

Starting an instance that is already recorded as running does nothing.`,
		Example: `  # Start with defaults
  sudo relay serve start

  # Start behind two upstream proxies
  sudo relay serve start -x http://10.0.0.1:3128 -x socks5://10.0.0.2:1080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := deps.controller(commandLogger(cmd))
			res, err := ctrl.Start(cmd.Context(), args)
			if err != nil {
				return err
			}
			reportStart(cmd, deps, res)
			return nil
		},
	}

	config.BindFlags(cmd.Flags(), &args)
	return cmd
}

func newRestartCommand(deps Deps) *cobra.Command {
	var (
		args        config.ServeArgs
		stopTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the background relay",
		Long: `Stop the background relay, wait for it to exit, then start it again
with the given flags.

A stop that finds nothing running does not prevent the start. If the old
process is still alive after --stop-timeout, the start goes ahead anyway.`,
		Example: `  # Restart with a new config file
  sudo relay serve restart --config /etc/relay/relay-serve.yaml

  # Wait up to 30s for the old instance to exit
  sudo relay serve restart --stop-timeout 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := deps.controller(commandLogger(cmd))
			res, err := ctrl.Restart(cmd.Context(), args, stopTimeout)
			if res.StopErr == nil {
				reportStop(cmd, res.Stop)
			}
			if err != nil {
				return shared.NewExitError("restart failed", err)
			}
			reportStart(cmd, deps, res.Start)
			return nil
		},
	}

	config.BindFlags(cmd.Flags(), &args)
	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", defaultStopTimeout, "How long to wait for the old instance to exit")
	return cmd
}

func reportStart(cmd *cobra.Command, deps Deps, res daemon.StartResult) {
	p := printer(cmd)
	switch res.Outcome {
	case daemon.Started:
		p.OK("relay started with pid %d", res.PID)
		p.Detail("pid file: %s", deps.Env.PIDFile)
		p.Detail("output:   %s", deps.Env.Stdout)
		p.Detail("errors:   %s", deps.Env.Stderr)
	case daemon.AlreadyRunning:
		p.Info("relay is already running with pid %d", res.PID)
	case daemon.Served:
		// The child's stdout is the log file; nothing to tell the user.
	}
}

// commandLogger logs controller warnings to the command's stderr.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	cfg := internallog.FromEnv()
	cfg.Output = cmd.ErrOrStderr()
	cfg.Format = internallog.FormatText
	return internallog.New(cfg)
}
