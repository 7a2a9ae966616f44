package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/server/config"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const generatedPasswordBytes = 12

// Test seams.
var (
	readPassword = term.ReadPassword
	openDB       = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
	newManager   = repomanager.NewPostgresRepositoryManager
)

type registrar interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadEnvConfig()

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Administer a dashkeeper installation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfg.DatabaseDSN, "dsn", "d", cfg.DatabaseDSN, "PostgreSQL DSN")

	root.AddCommand(newMigrateCmd(cfg), newUserCmd(cfg))
	return root
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("db init error: %w", err)
			}
			defer db.Close()

			if err := newManager().RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newUserCmd(cfg *config.Config) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var (
		username, email string
		generate        bool
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user, prompting for the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("db init error: %w", err)
			}
			defer db.Close()

			us := services.NewUserService(db, newManager(), cfg, logging.Nop())
			if generate {
				return addUserGenerated(cmd.Context(), us, cmd.OutOrStdout(), username, email)
			}
			return addUser(cmd.Context(), us, cmd.OutOrStdout(), username, email)
		},
	}
	addCmd.Flags().StringVarP(&username, "username", "u", "", "username")
	addCmd.Flags().StringVarP(&email, "email", "e", "", "e-mail address")
	addCmd.Flags().BoolVarP(&generate, "generate", "g", false, "generate a random password and print it")
	_ = addCmd.MarkFlagRequired("username")
	_ = addCmd.MarkFlagRequired("email")

	userCmd.AddCommand(addCmd)
	return userCmd
}

// addUser prompts for a password without echo and registers the user.
func addUser(ctx context.Context, reg registrar, w io.Writer, username, email string) error {
	fmt.Fprint(w, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	if len(pw) == 0 {
		return errors.New("password must not be empty")
	}
	return register(ctx, reg, w, username, email, string(pw))
}

// addUserGenerated registers the user with a random password and prints it
// once.
func addUserGenerated(ctx context.Context, reg registrar, w io.Writer, username, email string) error {
	pw, err := common.MakeRandHexString(generatedPasswordBytes)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	if err := register(ctx, reg, w, username, email, pw); err != nil {
		return err
	}
	fmt.Fprintf(w, "password: %s\n", pw)
	return nil
}

func register(ctx context.Context, reg registrar, w io.Writer, username, email, password string) error {
	u, err := reg.Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created user %s (%s)\n", u.Username, u.ID)
	return nil
}
