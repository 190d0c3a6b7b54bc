package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type watchCmd struct {
	add   string
	rm    string
	notes string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "list or edit the stock watchlist" }
func (*watchCmd) Usage() string {
	return `watch [-add <symbol> [-notes <text>]] [-rm <symbol>]

  Without flags, lists every watched symbol with its latest stored quote.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "symbol to start watching")
	f.StringVar(&c.rm, "rm", "", "symbol to stop watching")
	f.StringVar(&c.notes, "notes", "", "notes stored with -add")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.add != "" && c.rm != "" {
		fmt.Fprintln(os.Stderr, "-add and -rm cannot be combined")
		return subcommands.ExitUsageError
	}

	v, err := openVault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer v.Close()

	if c.rm != "" {
		if err := v.watchlist.RemoveSymbol(ctx, c.rm); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing symbol: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Removed %s from the watchlist\n", c.rm)
		return subcommands.ExitSuccess
	}

	session, err := v.login(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		return subcommands.ExitFailure
	}
	defer session.Close()

	if c.add != "" {
		item, err := v.watchlist.AddSymbol(ctx, session, c.add, c.notes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding symbol: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Watching %s\n", item.Symbol)
		return subcommands.ExitSuccess
	}

	items, err := v.watchlist.GetWatchlist(ctx, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading watchlist: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(items) == 0 {
		fmt.Println("Watchlist is empty")
		return subcommands.ExitSuccess
	}

	fmt.Printf("Symbol\tPrice\t\tAdded\t\tNotes\n")
	for _, item := range items {
		price := "-"
		if item.CurrentPrice != nil {
			price = item.CurrentPrice.StringFixed(2)
		}
		fmt.Printf("%s\t%s\t\t%s\t%s\n",
			item.Symbol,
			price,
			item.AddedDate.Format("2006-01-02"),
			item.Notes,
		)
	}

	return subcommands.ExitSuccess
}
