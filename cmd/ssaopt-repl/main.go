// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"ssaopt/repl"
)

func main() {
	repl.Start(os.Stdin, os.Stdout)
}
