package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type demoCmd struct {
	seed  bool
	purge bool
}

func (*demoCmd) Name() string     { return "demo" }
func (*demoCmd) Synopsis() string { return "seed or purge the demo dataset" }
func (*demoCmd) Usage() string {
	return `demo -seed | -purge

  -seed replaces the demo dataset with fresh sample accounts and watchlist
  symbols. -purge removes every demo record and leaves real data untouched.
`
}

func (c *demoCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.seed, "seed", false, "seed sample accounts and watchlist symbols")
	f.BoolVar(&c.purge, "purge", false, "remove all demo records")
}

func (c *demoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.seed == c.purge {
		fmt.Fprintln(os.Stderr, "exactly one of -seed or -purge must be provided")
		return subcommands.ExitUsageError
	}

	v, err := openVault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer v.Close()

	if c.purge {
		accounts, items, err := v.demo.Purge(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error purging demo data: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Purged %d demo accounts and %d demo watchlist symbols\n", accounts, items)
		return subcommands.ExitSuccess
	}

	session, err := v.login(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		return subcommands.ExitFailure
	}
	defer session.Close()

	if err := v.demo.Seed(ctx, session); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding demo data: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println("Demo dataset seeded")
	return subcommands.ExitSuccess
}
