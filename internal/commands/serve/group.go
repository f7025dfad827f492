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

// Package serve implements "relay serve" and its start, stop, restart,
// status and log subcommands.
package serve

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/relay/internal/commands/shared"
	"github.com/tombee/relay/internal/config"
	"github.com/tombee/relay/internal/daemon"
	"github.com/tombee/relay/internal/gateway"
	"github.com/tombee/relay/internal/lifecycle"
)

// Deps are the collaborators of the serve commands. Tests replace them.
type Deps struct {
	Env     lifecycle.Environment
	Launch  daemon.Launcher
	Options daemon.Options
}

// DefaultDeps uses the system file locations and the real gateway.
func DefaultDeps() Deps {
	return Deps{
		Env:    lifecycle.DefaultEnvironment(),
		Launch: RunGateway,
	}
}

// RunGateway builds the gateway for cfg and serves until ctx is done.
func RunGateway(ctx context.Context, cfg config.Resolved) error {
	l, err := gateway.NewBuilder(cfg).Build()
	if err != nil {
		return err
	}
	return l.Run(ctx)
}

func (d Deps) controller(logger *slog.Logger) *daemon.Controller {
	opts := d.Options
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return daemon.New(d.Env, d.Launch, opts)
}

// NewCommand creates the serve command group.
func NewCommand(deps Deps) *cobra.Command {
	var args config.ServeArgs

	cmd := &cobra.Command{
		Use: "serve",
		Annotations: map[string]string{
			"group": "service",
		},
		Short: "Run the relay gateway",
		Long: `Run the relay gateway in the foreground, or manage a background
instance with the start, stop, restart, status and log subcommands.

A config file given with --config replaces every other serve flag.
Unset options take their defaults; see 'relay generate-template'.`,
		Example: `  # Run in the foreground on port 8080
  relay serve --port 8080

  # Run in the foreground from a config file
  relay serve --config relay-serve.yaml

  # Run in the background
  sudo relay serve start --config /etc/relay/relay-serve.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForeground(cmd, deps, args)
		},
	}

	config.BindFlags(cmd.Flags(), &args)

	cmd.AddCommand(newStartCommand(deps))
	cmd.AddCommand(newStopCommand(deps))
	cmd.AddCommand(newRestartCommand(deps))
	cmd.AddCommand(newStatusCommand(deps))
	cmd.AddCommand(newLogCommand(deps))

	return cmd
}

func runForeground(cmd *cobra.Command, deps Deps, args config.ServeArgs) error {
	cfg, err := config.Resolve(args, true)
	if err != nil {
		return err
	}
	return deps.Launch(cmd.Context(), cfg)
}

func printer(cmd *cobra.Command) shared.Printer {
	return shared.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
}
