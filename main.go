// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/dockhand/dockhand/cmd/dockhand"

func main() {
	cmd.Execute()
}
