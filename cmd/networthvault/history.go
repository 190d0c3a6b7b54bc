package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
)

type historyCmd struct {
	account string
	days    int
	metrics bool
	trend   bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show an account's value history and analytics" }
func (*historyCmd) Usage() string {
	return `history -account <id> [-days <n>] [-metrics] [-trend]

  Prints the account's snapshots oldest first. -metrics summarizes the
  window (change, volatility, min/max); -trend fits a least-squares line
  and reports slope and confidence. -days limits how far back to look.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account id to report on")
	f.IntVar(&c.days, "days", 0, "restrict to the last n days (0 means all)")
	f.BoolVar(&c.metrics, "metrics", false, "print performance metrics for the window")
	f.BoolVar(&c.trend, "trend", false, "print a trend fit for the window")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		fmt.Fprintln(os.Stderr, "-account is required")
		return subcommands.ExitUsageError
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

	var from *time.Time
	if c.days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -c.days)
		from = &cutoff
	}

	if c.trend {
		trend, err := v.history.Trend(ctx, session, c.account, c.days)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing trend: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Direction:  %s\n", trend.Direction)
		fmt.Printf("Slope:      %+.2f per day\n", trend.Slope)
		fmt.Printf("R-squared:  %.3f\n", trend.RSquared)
		fmt.Printf("Confidence: %s\n", trend.Confidence)
		return subcommands.ExitSuccess
	}

	if c.metrics {
		m, err := v.history.Metrics(ctx, session, c.account, from, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing metrics: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Snapshots:  %d\n", m.TotalSnapshots)
		fmt.Printf("Start:      %s\n", m.StartValue.StringFixed(2))
		fmt.Printf("End:        %s\n", m.EndValue.StringFixed(2))
		fmt.Printf("Change:     %s (%s%%)\n", m.AbsoluteChange.StringFixed(2), m.PercentageChange.StringFixed(2))
		fmt.Printf("Direction:  %s\n", m.TrendDirection)
		fmt.Printf("Average:    %s\n", m.AverageValue.StringFixed(2))
		fmt.Printf("Min/Max:    %s / %s\n", m.MinValue.StringFixed(2), m.MaxValue.StringFixed(2))
		fmt.Printf("Volatility: %.2f\n", m.Volatility)
		return subcommands.ExitSuccess
	}

	snapshots, err := v.history.GetHistory(ctx, session, c.account, from, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(snapshots) == 0 {
		fmt.Println("No snapshots in the window")
		return subcommands.ExitSuccess
	}

	fmt.Printf("Date\t\t\tValue\t\tChange\n")
	for _, snap := range snapshots {
		fmt.Printf("%s\t%12s\t%s\n",
			snap.Timestamp.Format("2006-01-02 15:04"),
			snap.Value.StringFixed(2),
			snap.ChangeType,
		)
	}

	return subcommands.ExitSuccess
}
