package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
)

type importCmd struct {
	in   string
	mode string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import an encrypted backup into the vault" }
func (*importCmd) Usage() string {
	return `import -in <file> [-mode merge|replace]

  Decrypts a backup made by export and loads it. merge keeps existing
  records and skips duplicates; replace wipes accounts and watchlist first.
  The backup must have been exported with the same master password.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "backup file to import")
	f.StringVar(&c.mode, "mode", string(model.ImportModeMerge), "merge or replace")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" {
		fmt.Fprintln(os.Stderr, "-in is required")
		return subcommands.ExitUsageError
	}

	blob, err := os.ReadFile(c.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading backup file: %v\n", err)
		return subcommands.ExitFailure
	}

	v, err := openVault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer v.Close()

	session, err := v.login(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		return subcommands.ExitFailure
	}
	defer session.Close()

	result, err := v.backup.ImportAll(ctx, session, blob, model.ImportMode(c.mode))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing backup: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Accounts:  %d imported, %d skipped\n", result.AccountsImported, result.AccountsSkipped)
	fmt.Printf("Positions: %d imported\n", result.PositionsImported)
	fmt.Printf("Snapshots: %d imported\n", result.SnapshotsImported)
	fmt.Printf("Watchlist: %d imported, %d skipped\n", result.WatchlistImported, result.WatchlistSkipped)
	fmt.Printf("Settings:  %d imported\n", result.SettingsImported)

	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "skipped: %s\n", msg)
	}

	return subcommands.ExitSuccess
}
