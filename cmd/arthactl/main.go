// Arthactl is the offline administration tool for an Artha database.
// It exports and restores backup documents and runs database maintenance
// directly against the SQLite file, without a running server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/google/subcommands"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/alerts"
	"github.com/artha-io/artha/internal/modules/assets"
	"github.com/artha-io/artha/internal/modules/backup"
	"github.com/artha-io/artha/internal/modules/expenses"
	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/snapshots"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/artha-io/artha/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&exportCmd{}, "backup")
	commander.Register(&restoreCmd{}, "backup")
	commander.Register(&addUserCmd{}, "users")
	commander.Register(&listUsersCmd{}, "users")
	commander.Register(&maintenanceCmd{}, "database")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// cliLogger builds a quiet logger for CLI use. Repository and service
// logs only surface when something goes wrong.
func cliLogger() zerolog.Logger {
	return logger.New(logger.Config{
		Level:  "warn",
		Pretty: true,
	})
}

// openDatabase opens an existing Artha database file and applies the
// schema so the tool also works against a fresh path.
func openDatabase(dbPath string) (*database.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required (-db)")
	}

	db, err := database.New(database.Config{
		Path:    dbPath,
		Profile: database.ProfileLedger,
		Name:    "artha",
	})
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.SeedSystemCategories(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// newRepositories wires every repository the backup service needs.
func newRepositories(conn *sql.DB, log zerolog.Logger) backup.Repositories {
	return backup.Repositories{
		Users:        users.NewRepository(conn, log),
		Portfolios:   portfolio.NewRepository(conn, log),
		Banks:        accounts.NewBankRepository(conn, log),
		Demats:       accounts.NewDematRepository(conn, log),
		Cryptos:      accounts.NewCryptoRepository(conn, log),
		Exchanges:    accounts.NewExchangeRepository(conn, log),
		Categories:   expenses.NewCategoryRepository(conn, log),
		Expenses:     expenses.NewExpenseRepository(conn, log),
		Assets:       assets.NewAssetRepository(conn, log),
		Transactions: assets.NewTransactionRepository(conn, log),
		Holdings:     assets.NewHoldingRepository(conn, log),
		Alerts:       alerts.NewRepository(conn, log),
		Snapshots:    snapshots.NewRepository(conn, log),
	}
}

// resolveUser accepts either a numeric user id or an email address.
func resolveUser(repo *users.Repository, ref string) (*domain.User, error) {
	if ref == "" {
		return nil, fmt.Errorf("user reference is required (-user)")
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		user, err := repo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("user %d not found", id)
		}
		return user, nil
	}

	user, err := repo.GetByEmail(ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", ref)
	}
	return user, nil
}
