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
	"github.com/spf13/cobra"

	"github.com/tombee/relay/internal/daemon"
)

func newStopCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background relay",
		Long: `Interrupt the recorded relay process and remove the pid record.

Requires root. Stop does not wait for the process to exit. Stopping when
nothing is running succeeds, so repeated stops are safe.`,
		Example: `  sudo relay serve stop`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := deps.controller(commandLogger(cmd))
			res, err := ctrl.Stop(cmd.Context())
			if err != nil {
				return err
			}

			reportStop(cmd, res)
			return nil
		},
	}
}

func reportStop(cmd *cobra.Command, res daemon.StopResult) {
	p := printer(cmd)
	switch res.Outcome {
	case daemon.Stopped:
		p.OK("relay stopped (pid %d)", res.PID)
	case daemon.NotRunning:
		p.Info("relay is not running")
	case daemon.SignalFailed:
		p.Warn("could not signal pid %d: %v", res.PID, res.Warning)
		p.Info("pid record removed")
	}
}
