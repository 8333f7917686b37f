package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/artha-io/artha/internal/modules/backup"
)

type exportCmd struct {
	db   string
	user string
	out  string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a user's data to a backup document" }
func (*exportCmd) Usage() string {
	return `export -db <path> -user <id|email> [-out <file>]

  Flattens every record owned by the user into a versioned JSON backup
  document. Writes to stdout when -out is omitted or set to "-".
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "data/artha.db", "Path to the Artha database file")
	f.StringVar(&c.user, "user", "", "User id or email to export (required)")
	f.StringVar(&c.out, "out", "", "Output file, \"-\" or empty for stdout")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	data, filename, err := service.ExportJSON(user.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.out == "" || c.out == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing document: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	target := c.out
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = target + string(os.PathSeparator) + filename
	}

	if err := os.WriteFile(target, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", target, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Exported %s (%d bytes) for %s\n", target, len(data), user.Email)
	return subcommands.ExitSuccess
}
