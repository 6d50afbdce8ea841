package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/cli"
	"github.com/mrlokans/bookshelf/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

const (
	exitError = 1
	exitUsage = 2
)

func main() {
	if len(os.Args) < 2 {
		cli.PrintUsage(os.Stderr, os.Args[0])
		os.Exit(exitUsage)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "help", "-h", "--help":
		cli.PrintUsage(os.Stdout, os.Args[0])
		return
	case "version", "--version":
		fmt.Printf("bookshelf %s (%s)\n", Version, Commit)
		return
	}

	cli.Version = Version
	cmd, ok := cli.Lookup(command, config.NewConfig(), os.Stdout)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		cli.PrintUsage(os.Stderr, os.Args[0])
		os.Exit(exitUsage)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorMessage(err))
		os.Exit(exitError)
	}
}
