// Command alkali rewrites reactive roots in JavaScript source into
// explicit reactive primitive calls.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/alkali/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
