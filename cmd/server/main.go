package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	servercmd "github.com/louisbranch/takehome/internal/cmd/server"
)

func main() {
	cfg, err := servercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SERVER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := servercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
