// SPDX-License-Identifier: MPL-2.0

//go:build windows

package process

import (
	"errors"
	"os"
)

// openPseudoTerminal is unsupported on Windows; interactive invocations fail to start.
func openPseudoTerminal() (ptmx, tty *os.File, err error) {
	return nil, nil, errors.New("pseudo-terminals are not supported on windows")
}
