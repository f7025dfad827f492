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
	"fmt"
	"iter"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/relay/pkg/errors"
)

func newLogCommand(deps Deps) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the background relay output",
		Long: `Print the output of the background relay, oldest line first.

With --follow, keep printing new lines as they are written until
interrupted or the file is removed.`,
		Example: `  relay serve log

  relay serve log --follow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := deps.controller(commandLogger(cmd))
			tail, err := ctrl.OpenLog()
			if err != nil {
				return errors.Wrap(err, "failed to open log")
			}
			defer tail.Close()

			lines := tail.Lines()
			if follow {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				lines = tail.Follow(ctx)
			}
			printLines(cmd, lines)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing appended lines")
	return cmd
}

// printLines writes every line; a bad line is reported and skipped.
func printLines(cmd *cobra.Command, lines iter.Seq2[string, error]) {
	out := cmd.OutOrStdout()
	p := printer(cmd)
	for line, err := range lines {
		if err != nil {
			p.Warn("%v", err)
			continue
		}
		fmt.Fprintln(out, line)
	}
}
