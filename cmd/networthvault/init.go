package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type initCmd struct {
	demo bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create and initialize a new vault" }
func (*initCmd) Usage() string {
	return `init [-demo]

  Creates the vault database, derives the master key from a new password,
  and stores the KDF parameters. Fails if the vault is already initialized.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.demo, "demo", false, "seed the new vault with sample accounts and watchlist symbols")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := openVault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer v.Close()

	initialized, err := v.auth.Initialized(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking vault state: %v\n", err)
		return subcommands.ExitFailure
	}
	if initialized {
		fmt.Fprintf(os.Stderr, "Vault at %q is already initialized\n", v.cfg.DBPath)
		return subcommands.ExitFailure
	}

	password, err := v.newPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return subcommands.ExitFailure
	}

	session, err := v.auth.Initialize(ctx, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer session.Close()

	fmt.Printf("Vault initialized at %s\n", v.cfg.DBPath)

	if c.demo {
		if err := v.demo.Seed(ctx, session); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding demo data: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println("Demo dataset seeded; remove it later with: demo -purge")
	}

	return subcommands.ExitSuccess
}
