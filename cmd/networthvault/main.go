package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&initCmd{}, "vault")
	commander.Register(&statusCmd{}, "vault")
	commander.Register(&rotatePasswordCmd{}, "vault")
	commander.Register(&checkCmd{}, "vault")

	commander.Register(&exportCmd{}, "data")
	commander.Register(&importCmd{}, "data")
	commander.Register(&historyCmd{}, "data")
	commander.Register(&watchCmd{}, "data")

	commander.Register(&demoCmd{}, "maintenance")
	commander.Register(&cleanupCmd{}, "maintenance")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(int(commander.Execute(ctx)))
}
