// Command imgmeta inspects images, copies metadata between them and
// extracts frames and regions while keeping the source's tags.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imgmeta:", err)
		os.Exit(1)
	}
}
