// Package main is the entry point of mapperscan, the companion tool of the
// mapper: it generates type catalogs and validates mapping documents.
package main

import (
	"context"
	"fmt"
	"os"

	"graph-mapper/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
