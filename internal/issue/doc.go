// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the container involved, and
// remediation hints. Issue holds a Markdown guide per error kind, rendered for
// the terminal with glamour by `dockhand explain` and by verbose failures.
package issue
