// SPDX-License-Identifier: MPL-2.0

// Package config handles dockhand configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/dockhand/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/dockhand/config.cue on macOS, %APPDATA%\dockhand\config.cue
// on Windows), falling back to ./config.cue. Files are validated against the embedded
// CUE schema before being merged over the defaults. Environment variables prefixed with
// DOCKHAND_ override both, with dots in key names replaced by underscores
// (DOCKHAND_WAIT_MAX_WAIT).
package config
