// Command cachectl runs single cache operations against a configured
// cachekit provider and prints the DDL the relational provider expects.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cachectl:", err)
		os.Exit(1)
	}
}
