// SPDX-License-Identifier: MPL-2.0

// Package process runs external command-line programs and captures what they print.
//
// An Invoker executes a Request and returns a Result holding the captured stdout lines,
// the captured stderr lines, and the exit status. CLIInvoker is the os/exec backed
// implementation used in production; tests substitute the exec.Cmd factory with the
// TestHelperProcess pattern or replace the Invoker entirely.
//
// SplitCommand turns a single command string into an argument vector using POSIX shell
// word rules, so that callers can hand a command such as `sh -c "echo hi"` to an engine
// without involving a shell on the host.
package process
