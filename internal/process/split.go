// SPDX-License-Identifier: MPL-2.0

package process

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ErrUnsupportedCommand is returned by SplitCommand for input that is more than a simple command.
var ErrUnsupportedCommand = errors.New("unsupported command syntax")

// SplitCommand splits a command string into argv using POSIX shell word rules.
//
// Quoting and escaping behave as in sh. Parameter references expand against an
// empty environment, globbing is disabled, and anything other than a single simple
// command (pipelines, redirections, assignments, command substitution, multiple
// statements) is rejected with ErrUnsupportedCommand.
func SplitCommand(command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w: empty command", ErrUnsupportedCommand)
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", command, err)
	}

	if len(file.Stmts) != 1 {
		return nil, fmt.Errorf("%w: expected a single command, got %d statements", ErrUnsupportedCommand, len(file.Stmts))
	}
	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, fmt.Errorf("%w: operators and redirections are not allowed", ErrUnsupportedCommand)
	}

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a simple command", ErrUnsupportedCommand, command)
	}
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("%w: variable assignments are not allowed", ErrUnsupportedCommand)
	}

	cfg := &expand.Config{Env: expand.ListEnviron()}
	fields, err := expand.Fields(cfg, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedCommand, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: command expands to nothing", ErrUnsupportedCommand)
	}
	return fields, nil
}
