// Command appforge synthesizes web-application source trees from resource
// descriptions. Generation is deterministic and idempotent: re-running a
// generation for an already-built application performs zero writes.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
