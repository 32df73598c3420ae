// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package process

import (
	"os"

	"github.com/creack/pty"
)

// openPseudoTerminal allocates a pty pair; the tty end becomes the child's stdin.
func openPseudoTerminal() (ptmx, tty *os.File, err error) {
	return pty.Open()
}
