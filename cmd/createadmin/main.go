// Command createadmin creates an administrator account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/config"
	"hostelgrievance-be/repositories"
	"hostelgrievance-be/services"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var name, email, password string

	flagSet := pflag.NewFlagSet("createadmin", pflag.ContinueOnError)
	flagSet.StringVar(&name, "name", "Admin", "display name of the administrator")
	flagSet.StringVar(&email, "email", "", "login email of the administrator (required)")
	flagSet.StringVar(&password, "password", "", "initial password (default: $ADMIN_PASSWORD)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if email == "" || password == "" {
		printHelp(flagSet)
		return errors.New("--email and a password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer config.DisconnectDB(context.Background(), db)

	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	admin := services.NewAdminService(repositories.NewIdentityRepository(db), repositories.NewAccountRepository(db), logger)
	account, err := admin.BootstrapAdmin(ctx, name, email, password)
	if errors.Is(err, apperrors.ErrAccountExists) {
		return fmt.Errorf("an admin with email %s already exists", email)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Admin created: %s (%s)\n", account.Email, account.ID.Hex())
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `createadmin creates the first administrator account.

Reads MONGODB_URI and JWT_SECRET from the environment or .env like the
server does.

Usage:
  createadmin --email warden@hostel.edu [--name "Chief Warden"] [--password ...]

Flags:
%s`, flagSet.FlagUsages())
}
