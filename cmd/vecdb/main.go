// Command vecdb is a thin shell over the collection API: create and load
// collections, build the index, run searches, and manage backups.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}
