// Command bgg-proxy serves the BoardGameGeek XML API as JSON behind one
// shared rate-limited client, and fetches single resources from the shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
