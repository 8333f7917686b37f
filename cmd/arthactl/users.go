package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/users"
)

type addUserCmd struct {
	db    string
	email string
	name  string
}

func (*addUserCmd) Name() string     { return "add-user" }
func (*addUserCmd) Synopsis() string { return "create a user with a default portfolio" }
func (*addUserCmd) Usage() string {
	return `add-user -db <path> -email <email> [-name <name>]

  Creates a new user and their default portfolio.
`
}

func (c *addUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "data/artha.db", "Path to the Artha database file")
	f.StringVar(&c.email, "email", "", "User email (required)")
	f.StringVar(&c.name, "name", "", "Display name")
}

func (c *addUserCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		fmt.Fprintln(os.Stderr, "Error: -email is required")
		return subcommands.ExitUsageError
	}

	log := cliLogger()

	db, err := openDatabase(c.db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	userRepo := users.NewRepository(db.Conn(), log)
	portfolioRepo := portfolio.NewRepository(db.Conn(), log)

	existing, err := userRepo.GetByEmail(c.email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if existing != nil {
		fmt.Fprintf(os.Stderr, "Error: user %q already exists (id %d)\n", c.email, existing.ID)
		return subcommands.ExitFailure
	}

	id, err := userRepo.Create(c.email, c.name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		return subcommands.ExitFailure
	}

	if _, err := portfolioRepo.EnsureDefault(id); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating default portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Created user %d (%s)\n", id, c.email)
	return subcommands.ExitSuccess
}

type listUsersCmd struct {
	db string
}

func (*listUsersCmd) Name() string     { return "list-users" }
func (*listUsersCmd) Synopsis() string { return "list all users" }
func (*listUsersCmd) Usage() string {
	return `list-users -db <path>

  Prints all users in the database.
`
}

func (c *listUsersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "data/artha.db", "Path to the Artha database file")
}

func (c *listUsersCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := cliLogger()

	db, err := openDatabase(c.db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	userRepo := users.NewRepository(db.Conn(), log)

	all, err := userRepo.GetAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(all) == 0 {
		fmt.Println("No users")
		return subcommands.ExitSuccess
	}

	for _, u := range all {
		fmt.Printf("%d\t%s\t%s\n", u.ID, u.Email, u.Name)
	}
	return subcommands.ExitSuccess
}
