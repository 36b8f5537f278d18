package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophstore/internal/buildinfo"
	"github.com/dmitrijs2005/gophstore/internal/client/cli"
	"github.com/dmitrijs2005/gophstore/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first signal asks the REPL to stop; the second one kills the process.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		signal.Stop(sig)
		cancel()
		fmt.Fprintln(os.Stderr, "interrupted: press Enter to exit, Ctrl+C again to quit now")
	}()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
