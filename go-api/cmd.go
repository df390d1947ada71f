package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskpad",
	Short: "Personal notes and tasks API",
	Long: `taskpad serves a notes-and-tasks HTTP API for users signed in with
Firebase Authentication, plus a small rule-based assistant.

Configuration comes from the environment (optionally a .env file) and an
optional taskpad.yaml; environment variables win.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadDotenv()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: ./taskpad.yaml if present)")

	tokenCmd.Flags().String("subject", "", "subject (user id) to put in the token")
	tokenCmd.Flags().String("email", "", "optional email claim")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	usersListCmd.Flags().String("subject", "", "only report this subject")

	usersCmd.AddCommand(usersListCmd, usersDeleteCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, usersCmd)
}

// connect requires a database URL and opens it.
func connect(cfg Config) (*gorm.DB, error) {
	if err := cfg.requireDatabase(); err != nil {
		return nil, err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("[DB] %w", err)
	}
	return db, nil
}

// connectFromFlags is connect for the commands that only need the database.
func connectFromFlags() (*gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return connect(cfg)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		// refuse to start half-configured
		if err := cfg.requireAuth(); err != nil {
			return err
		}
		db, err := connect(cfg)
		if err != nil {
			return err
		}
		if err := autoMigrate(db); err != nil {
			return fmt.Errorf("[DB] migrate: %w", err)
		}

		s := newServer(db, newVerifier(cfg))
		addr := ":" + cfg.Port
		srv := &http.Server{
			Addr:              addr,
			Handler:           s.routes(cfg.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Println("API listening on", addr, "CORS origins:", cfg.CORSOrigins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users, notes and tasks tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectFromFlags()
		if err != nil {
			return err
		}
		if err := autoMigrate(db); err != nil {
			return fmt.Errorf("[DB] migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Tables created.")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token signed with AUTH_DEV_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.Auth.DevSecret == "" {
			return errors.New("AUTH_DEV_SECRET is not set")
		}
		subject, _ := cmd.Flags().GetString("subject")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		tok, err := signDevToken([]byte(cfg.Auth.DevSecret), subject, email, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with their note and task counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectFromFlags()
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		rows, err := userReport(cmd.Context(), sqlx.NewDb(sqlDB, "pgx"), subject)
		if err != nil {
			return err
		}
		return printUserReport(cmd.OutOrStdout(), rows)
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <firebase-uid>",
	Short: "Delete a user and all of their notes and tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectFromFlags()
		if err != nil {
			return err
		}
		deleted, err := deleteUserBySubject(db.WithContext(cmd.Context()), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no user with subject %q", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s and their notes and tasks.\n", args[0])
		return nil
	},
}
