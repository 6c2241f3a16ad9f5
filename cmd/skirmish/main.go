// Package main provides the skirmish batch combat simulator CLI.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/skirmish/internal/platform/config"

	skirmishcmd "github.com/louisbranch/skirmish/internal/cmd/skirmish"
)

func main() {
	log.SetPrefix("[SKIRMISH] ")
	cfg, err := skirmishcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := skirmishcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
