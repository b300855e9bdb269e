package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rana718/dbkeeper/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// First signal cancels at the next table boundary, second one exits.
		stop := make(chan os.Signal, 2)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(stop)
		<-stop
		cancel()
		fmt.Fprintln(os.Stderr, "interrupt received, finishing the current table; ^C again to terminate")
		<-stop
		os.Exit(1)
	}()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
