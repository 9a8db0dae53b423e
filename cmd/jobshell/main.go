// Command jobshell is a tiny interactive shell with job control.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
