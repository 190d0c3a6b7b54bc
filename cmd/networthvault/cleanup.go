package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type cleanupCmd struct {
	keepDays int
}

func (*cleanupCmd) Name() string     { return "cleanup" }
func (*cleanupCmd) Synopsis() string { return "delete historical snapshots older than a cutoff" }
func (*cleanupCmd) Usage() string {
	return `cleanup [-keep-days <n>]

  Deletes snapshots older than n days while always keeping each account's
  newest snapshot. Runs on plaintext timestamps, so no password is needed.
  Defaults to NETWORTHVAULT_SNAPSHOT_KEEP_DAYS when the flag is absent.
`
}

func (c *cleanupCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.keepDays, "keep-days", 0, "snapshot retention in days")
}

func (c *cleanupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := openVault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer v.Close()

	keepDays := c.keepDays
	if keepDays == 0 {
		keepDays = v.cfg.SnapshotKeepDays
	}
	if keepDays <= 0 {
		fmt.Fprintln(os.Stderr, "-keep-days must be positive (or set NETWORTHVAULT_SNAPSHOT_KEEP_DAYS)")
		return subcommands.ExitUsageError
	}

	deleted, err := v.history.Cleanup(ctx, keepDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error cleaning up snapshots: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Deleted %d snapshots older than %d days\n", deleted, keepDays)
	return subcommands.ExitSuccess
}
