// hpmdfu - reboots the partners on a host's USB-C ports into DFU mode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hpmdfu/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "hpmdfu: %v\n", err)
		os.Exit(1)
	}
}
