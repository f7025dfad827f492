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

package shared

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// CLI style colors using lipgloss
var (
	// StatusOK styles success indicators
	StatusOK = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green

	// StatusWarn styles warning indicators
	StatusWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange

	// StatusError styles error indicators
	StatusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red

	// Muted styles secondary text
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
)

// Symbols for status indicators
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
)

// RenderOK renders a success message with green checkmark
func RenderOK(msg string) string {
	return StatusOK.Render(SymbolOK) + " " + msg
}

// RenderWarn renders a warning message with orange symbol
func RenderWarn(msg string) string {
	return StatusWarn.Render(SymbolWarn) + " " + msg
}

// RenderError renders an error message with red X
func RenderError(msg string) string {
	return StatusError.Render(SymbolError) + " " + msg
}

// Printer writes command output. Informational lines are dropped under
// --quiet; warnings always go to Err. Symbols are only added on terminals.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// OK prints a success line.
func (p Printer) OK(format string, args ...any) {
	if GetQuiet() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if IsTerminal(p.Out) {
		msg = RenderOK(msg)
	}
	fmt.Fprintln(p.Out, msg)
}

// Info prints a plain line.
func (p Printer) Info(format string, args ...any) {
	if GetQuiet() {
		return
	}
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Detail prints a secondary line, shown only with --verbose.
func (p Printer) Detail(format string, args ...any) {
	if !GetVerbose() || GetQuiet() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if IsTerminal(p.Out) {
		msg = Muted.Render(msg)
	}
	fmt.Fprintln(p.Out, msg)
}

// Warn prints a warning line.
func (p Printer) Warn(format string, args ...any) {
	msg := "Warning: " + fmt.Sprintf(format, args...)
	if IsTerminal(p.Err) {
		msg = RenderWarn(msg)
	}
	fmt.Fprintln(p.Err, msg)
}
