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

// Package template implements "relay generate-template".
package template

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/relay/internal/commands/shared"
	"github.com/tombee/relay/internal/config"
)

// NewCommand creates the generate-template command.
func NewCommand() *cobra.Command {
	var (
		cover bool
		out   string
	)

	cmd := &cobra.Command{
		Use: "generate-template",
		Annotations: map[string]string{
			"group": "config",
		},
		Short: "Write a config file scaffold",
		Long: `Write a config file listing every serve option with its default.

Without --cover nothing is written: the scaffold is printed to stdout and
the target path is only checked. With --cover the target is created, or
replaced if it exists. Missing parent directories are created.

The default target is ` + config.DefaultTemplateName + ` in the current directory.`,
		Example: `  # Preview the scaffold
  relay generate-template

  # Write it to /etc/relay
  sudo relay generate-template --cover --out /etc/relay/relay-serve.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := config.GenerateTemplate(cover, out)
			if err != nil {
				return err
			}

			p := shared.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
			if cover {
				p.OK("config template written to %s", target)
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), config.Template)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s not written; pass --cover to write it\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cover, "cover", false, "Write the file, replacing an existing one")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Target file (default ./"+config.DefaultTemplateName+")")
	return cmd
}
