// Package main is the entry point for the Star Wars catalog API.
//
// Commands:
//
//	starwars-api            same as `serve`
//	starwars-api serve      run the HTTP API
//	starwars-api seed       load a catalog fixture into the store and exit
//	starwars-api routes     print every registered route and exit
//
// All actual logic lives in internal/. main only reads configuration, opens
// the store and hands it to the server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
