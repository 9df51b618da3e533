package main

import (
	"flag"
	"os"

	"github.com/louisbranch/takehome/internal/platform/config"
	"github.com/louisbranch/takehome/internal/tools/webhooksecret"
)

func main() {
	cfg, err := webhooksecret.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := webhooksecret.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate secret: %v", err)
	}
}
