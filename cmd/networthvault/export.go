package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
)

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the whole vault as one encrypted backup" }
func (*exportCmd) Usage() string {
	return `export [-out <file>]

  Writes every account, snapshot, watchlist entry, and user setting into a
  single backup blob encrypted with the master key. The default file name
  carries today's date.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "out", "", "backup file to write (default networthvault-YYYYMMDD.backup)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := c.out
	if out == "" {
		out = fmt.Sprintf("networthvault-%s.backup", time.Now().Format("20060102"))
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

	blob, err := v.backup.ExportAll(ctx, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting vault: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := os.WriteFile(out, blob, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing backup file: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Exported vault to %s (%d bytes)\n", out, len(blob))
	return subcommands.ExitSuccess
}
