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

	"github.com/tombee/relay/internal/commands/shared"
	"github.com/tombee/relay/internal/daemon"
)

type statusResponse struct {
	shared.JSONResponse
	daemon.Status
}

func newStatusCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether relay is running",
		Long: `Report the pid recorded for the background relay.

Status only reads the pid record; it does not check that the process is
alive. Root is not required.`,
		Example: `  relay serve status

  # Machine-readable
  relay serve status --json | jq .pid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := deps.controller(commandLogger(cmd))
			st, err := ctrl.Status()
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), statusResponse{
					JSONResponse: shared.JSONResponse{
						Version: shared.JSONVersion,
						Command: "serve status",
						Success: true,
					},
					Status: st,
				})
			}

			p := printer(cmd)
			if st.Running {
				p.OK("relay is running with pid %d", st.PID)
			} else {
				p.Info("relay is not running")
			}
			p.Detail("pid file: %s", st.PIDFile)
			return nil
		},
	}
}
