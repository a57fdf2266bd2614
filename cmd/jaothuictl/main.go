package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"jaothui-api-server/config"
	"jaothui-api-server/internal/animalid"
	"jaothui-api-server/internal/app"
	"jaothui-api-server/internal/auth"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/database"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/push"
	"jaothui-api-server/internal/store/sqlstore/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configDir string

// loadConfig reads and validates the config the API server would use.
func loadConfig() (config.Config, logging.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:   "jaothuictl",
	Short: "Operations tool for the JAOTHUI farm API",
}

// remind command
var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run today's reminder dispatch once and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		var sender push.Sender = push.DisabledSender{}
		if cfg.PushEnabled() {
			sender, err = push.NewWebPushSender(push.WebPushConfig{
				VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
				VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
				Subscriber:      cfg.Push.VAPIDEmail,
			})
			if err != nil {
				return err
			}
		}

		a := app.New(app.Options{
			Config: cfg,
			Store:  st,
			Sender: sender,
			Clock:  clock.RealClock{},
			IDs:    clock.UUIDGenerator{},
			Logger: logger,
		})
		summary, err := a.Dispatcher.Run(ctx)
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
}

// openSQLite opens the configured SQLite file without applying migrations.
func openSQLite() (*sql.DB, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("migrations only apply to the sqlite driver, configured driver is %q", cfg.Database.Driver)
	}
	db, err := sql.Open("sqlite", cfg.Database.SQLitePath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	return db, nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrations.MigrateUp(db); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every migration (drops all data)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to drop the schema without --yes")
		}
		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrations.MigrateDown(db); err != nil {
			return err
		}
		fmt.Println("Schema dropped.")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()
		version, dirty, err := migrations.Status(db)
		if err != nil {
			return err
		}
		fmt.Printf("Version: %d\n", version)
		fmt.Printf("Dirty:   %t\n", dirty)
		return nil
	},
}

// vapid command
var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate a VAPID key pair for web push",
	RunE: func(cmd *cobra.Command, args []string) error {
		private, public, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\n", public)
		fmt.Printf("VAPID_PRIVATE_KEY=%s\n", private)
		return nil
	},
}

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret <secret>",
	Short: "Hash a cron secret for CRON_SECRET_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashSecret(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <external-user-id>",
	Short: "Mint a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		given, _ := cmd.Flags().GetString("given-name")
		family, _ := cmd.Flags().GetString("family-name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		v := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		token, err := v.GenerateJWT(args[0], given, family, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

// animal-id command
var animalIDCmd = &cobra.Command{
	Use:   "animal-id",
	Short: "Work with animal codes",
}

func parseAnimalType(s string) (models.AnimalType, error) {
	t := models.AnimalType(strings.ToUpper(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown animal type %q", s)
	}
	return t, nil
}

var animalIDGenerateCmd = &cobra.Command{
	Use:   "generate <type> [existing-code...]",
	Short: "Print the next code for a type given the codes already in use",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseAnimalType(args[0])
		if err != nil {
			return err
		}
		code, err := animalid.Generate(t, args[1:], time.Now())
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	},
}

var animalIDValidateCmd = &cobra.Command{
	Use:   "validate <type> <code>",
	Short: "Check a code against a type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseAnimalType(args[0])
		if err != nil {
			return err
		}
		if err := animalid.Validate(args[1], t); err != nil {
			return err
		}
		parts, _ := animalid.Parse(args[1])
		fmt.Printf("Valid: type %s, date %s, sequence %d\n", parts.TypeCode, parts.Date.Format("2006-01-02"), parts.Sequence)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./config", "Directory holding config.yaml")

	rootCmd.AddCommand(remindCmd)

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateDownCmd.Flags().Bool("yes", false, "Confirm dropping the schema")
	rootCmd.AddCommand(migrateCmd)

	rootCmd.AddCommand(vapidCmd)
	rootCmd.AddCommand(hashSecretCmd)

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("given-name", "", "Given name claim")
	tokenCmd.Flags().String("family-name", "", "Family name claim")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	animalIDCmd.AddCommand(animalIDGenerateCmd)
	animalIDCmd.AddCommand(animalIDValidateCmd)
	rootCmd.AddCommand(animalIDCmd)
}
