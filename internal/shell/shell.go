// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package shell runs external commands (kubectl, helm, git) on behalf of the
// CLI, with optional interactive passthrough and failure tolerance.
package shell

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("30"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Options control how a command is run.
type Options struct {
	// Interactive attaches the command to the caller's terminal instead of
	// capturing output. Used for attach/exec/log-follow style commands.
	Interactive bool
	// ErrorOK treats a non-zero exit as a valid empty-ish result instead of
	// a failure; the combined output is still returned.
	ErrorOK bool
	// Show echoes captured output to stdout after the command completes.
	Show bool
}

// Commander runs external commands. The aggregation sources and the chart
// manager depend on this interface so tests can substitute canned output.
type Commander interface {
	Run(ctx context.Context, opts Options, name string, args ...string) (string, error)
}

// Executor is the real Commander. Verbose echoes each command line before
// running it; Debug additionally dumps the captured output to stderr.
type Executor struct {
	Verbose bool
	Debug   bool
}

// New creates an executor.
func New(verbose, debug bool) *Executor {
	return &Executor{Verbose: verbose || debug, Debug: debug}
}

// Run executes a command and returns its combined output. A non-zero exit
// with ErrorOK unset returns a *CommandError carrying the output and the
// command line that failed.
func (e *Executor) Run(ctx context.Context, opts Options, name string, args ...string) (string, error) {
	line := commandLine(name, args)
	if e.Verbose {
		fmt.Fprintln(os.Stderr, commandStyle.Render(line))
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if opts.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil && !opts.ErrorOK {
			return "", &CommandError{Line: line, Err: err}
		}
		return "", nil
	}

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil && !opts.ErrorOK {
		if !e.Verbose {
			fmt.Fprintln(os.Stderr, commandStyle.Render(line))
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render("command failed:"))
		fmt.Fprint(os.Stderr, output)
		return "", &CommandError{Line: line, Output: output, Err: err}
	}
	if e.Debug {
		fmt.Fprint(os.Stderr, output)
	}
	if opts.Show {
		fmt.Print(output)
	}
	return output, nil
}

// CommandError reports a failed external command.
type CommandError struct {
	Line   string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Line, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// commandLine renders a command for display, quoting arguments that contain
// whitespace.
func commandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			parts = append(parts, fmt.Sprintf("%q", a))
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}
