package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	invitecmd "github.com/louisbranch/takehome/internal/cmd/invite"
	"github.com/louisbranch/takehome/internal/platform/config"
)

func main() {
	cfg, err := invitecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[INVITE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := invitecmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("invite candidate: %v", err)
	}
}
