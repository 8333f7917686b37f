package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/artha-io/artha/internal/modules/backup"
)

type restoreCmd struct {
	db   string
	user string
	file string
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "restore a backup document into a user's account" }
func (*restoreCmd) Usage() string {
	return `restore -db <path> -user <id|email> -file <backup.json>

  Merges the backup document into the destination user's data. Records
  that already exist are skipped, so restoring the same document twice
  leaves the database unchanged.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "data/artha.db", "Path to the Artha database file")
	f.StringVar(&c.user, "user", "", "Destination user id or email (required)")
	f.StringVar(&c.file, "file", "", "Backup document to restore (required)")
}

func (c *restoreCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", c.file, err)
		return subcommands.ExitFailure
	}

	log := cliLogger()

	db, err := openDatabase(c.db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	repos := newRepositories(db.Conn(), log)
	service := backup.NewService(db.Conn(), repos, log)

	user, err := resolveUser(repos.Users, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	stats, err := service.RestoreDocument(user.ID, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring: %v\n", err)
		return subcommands.ExitFailure
	}

	total := stats.Total()
	fmt.Printf("Restore complete for %s: %d imported, %d skipped, %d dropped\n",
		user.Email, total.Imported, total.Skipped, total.Dropped)

	rows := []struct {
		name  string
		stats backup.EntityStats
	}{
		{"portfolios", stats.Portfolios},
		{"bank accounts", stats.BankAccounts},
		{"demat accounts", stats.DematAccounts},
		{"crypto accounts", stats.CryptoAccounts},
		{"expense categories", stats.ExpenseCategories},
		{"assets", stats.Assets},
		{"transactions", stats.Transactions},
		{"mutual fund holdings", stats.MutualFundHoldings},
		{"expenses", stats.Expenses},
		{"alerts", stats.Alerts},
		{"snapshots", stats.PortfolioSnapshots},
		{"asset snapshots", stats.AssetSnapshots},
	}
	for _, row := range rows {
		if row.stats.Imported == 0 && row.stats.Skipped == 0 && row.stats.Dropped == 0 {
			continue
		}
		fmt.Printf("  %-22s imported=%d skipped=%d dropped=%d\n",
			row.name, row.stats.Imported, row.stats.Skipped, row.stats.Dropped)
	}

	return subcommands.ExitSuccess
}
