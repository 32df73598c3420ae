// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dockhand.
//
// This package implements the Cobra command hierarchy for the dockhand CLI:
// one subcommand per container lifecycle operation, the wait and status
// queries, engine diagnostics, configuration management and the explain
// catalog. Every handler receives the App composition root.
package cmd
