// Command unwind lowers Python source files into nested-list IR.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/roach88/unwind/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
