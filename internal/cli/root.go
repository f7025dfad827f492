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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/relay/internal/commands/serve"
	"github.com/tombee/relay/internal/commands/shared"
	"github.com/tombee/relay/internal/commands/template"
	versioncmd "github.com/tombee/relay/internal/commands/version"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand(deps serve.Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "relay - API relay gateway",
		Long: `relay forwards API requests to an upstream service through a pool of
proxies, with rate limiting, request signing and metrics.

Run 'relay serve' to start it in the foreground, or 'relay serve start'
to run it in the background.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, quiet, json := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")

	cmd.AddCommand(serve.NewCommand(deps))
	cmd.AddCommand(template.NewCommand())
	cmd.AddCommand(versioncmd.NewVersionCommand())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
