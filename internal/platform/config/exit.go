package config

import (
	"fmt"
	"os"
)

// Exitf prints the formatted message to stderr and terminates the process
// with status 1. Entry points call it when startup cannot continue.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
