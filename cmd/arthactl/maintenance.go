package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type maintenanceCmd struct {
	db         string
	vacuum     bool
	checkpoint bool
	integrity  bool
}

func (*maintenanceCmd) Name() string     { return "maintenance" }
func (*maintenanceCmd) Synopsis() string { return "run database maintenance" }
func (*maintenanceCmd) Usage() string {
	return `maintenance -db <path> [-vacuum] [-checkpoint] [-integrity]

  Runs the selected maintenance operations against the database file.
  With no operation flags, runs a WAL checkpoint and integrity check.
`
}

func (c *maintenanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "data/artha.db", "Path to the Artha database file")
	f.BoolVar(&c.vacuum, "vacuum", false, "Run VACUUM to reclaim space")
	f.BoolVar(&c.checkpoint, "checkpoint", false, "Truncate the WAL file")
	f.BoolVar(&c.integrity, "integrity", false, "Run a full integrity check")
}

func (c *maintenanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.vacuum && !c.checkpoint && !c.integrity {
		c.checkpoint = true
		c.integrity = true
	}

	db, err := openDatabase(c.db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if c.checkpoint {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println("WAL checkpoint complete")
	}

	if c.vacuum {
		if err := db.Vacuum(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println("Vacuum complete")
	}

	if c.integrity {
		if err := db.HealthCheck(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println("Integrity check passed")
	}

	stats, err := db.GetStats()
	if err == nil {
		fmt.Printf("Database size: %.2f MB (WAL %.2f MB, %d free pages)\n",
			float64(stats.SizeBytes)/1024/1024,
			float64(stats.WALSizeBytes)/1024/1024,
			stats.FreelistCount)
	}

	return subcommands.ExitSuccess
}
