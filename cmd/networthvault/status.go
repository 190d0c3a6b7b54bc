package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	sqliteadapter "github.com/ericfisherdev/networthvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show vault contents and net worth" }
func (*statusCmd) Usage() string {
	return `status

  Authenticates against the vault and prints schema version, record counts,
  and the current net worth across all readable accounts.
`
}

func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	total, skipped, err := v.accounts.NetWorth(ctx, session, driven.AccountFilter{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing net worth: %v\n", err)
		return subcommands.ExitFailure
	}

	count, err := v.accounts.CountAccounts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting accounts: %v\n", err)
		return subcommands.ExitFailure
	}

	items, err := v.watchlist.GetWatchlist(ctx, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading watchlist: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Vault:          %s\n", v.cfg.DBPath)
	fmt.Printf("Schema version: %d\n", sqliteadapter.SchemaVersion)
	if skipped > 0 {
		fmt.Printf("Accounts:       %d (%d unreadable)\n", count, skipped)
	} else {
		fmt.Printf("Accounts:       %d\n", count)
	}
	fmt.Printf("Watchlist:      %d symbols\n", len(items))
	fmt.Printf("Net worth:      %s\n", total.StringFixed(2))

	return subcommands.ExitSuccess
}
