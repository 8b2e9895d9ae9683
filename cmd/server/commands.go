package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakif/starwars-api/internal/auth"
	"github.com/sakif/starwars-api/internal/config"
	"github.com/sakif/starwars-api/internal/repository/sqldb"
	"github.com/sakif/starwars-api/internal/seed"
	"github.com/sakif/starwars-api/internal/server"
)

// app carries what every command needs once flags and environment are resolved.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "starwars-api",
		Short:         "Star Wars catalog and favorites REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadEnvFiles(".env", ".env.local")
			cfg, err := config.FromViper(a.v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			a.cfg = cfg
			a.logger = cfg.NewLogger(os.Stdout)
			slog.SetDefault(a.logger)
			return nil
		},
		RunE: a.runServe,
	}

	flags := root.PersistentFlags()
	flags.Int("port", 3000, "HTTP port (PORT)")
	flags.String("database-url", "", "postgres:// or sqlite:// connection string (DATABASE_URL)")
	flags.String("db-path", "data/starwars.db", "SQLite file used when no database URL is set (DB_PATH)")
	flags.String("log-level", "info", "debug, info, warn or error (LOG_LEVEL)")
	flags.String("log-format", "text", "text or json (LOG_FORMAT)")
	for key, flag := range map[string]string{
		config.KeyPort:        "port",
		config.KeyDatabaseURL: "database-url",
		config.KeyDBPath:      "db-path",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", flag, err))
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  a.runServe,
		},
		a.newSeedCmd(),
		&cobra.Command{
			Use:   "routes",
			Short: "Print every registered route",
			RunE:  a.runRoutes,
		},
	)

	return root
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	db, err := a.openStore()
	if err != nil {
		return a.fail("failed to open store", err)
	}
	defer db.Close()

	if a.cfg.SeedOnStart {
		catalog, err := readCatalog("")
		if err != nil {
			return a.fail("failed to read catalog fixture", err)
		}
		if _, err := a.seeder(db).Load(cmd.Context(), catalog); err != nil {
			return a.fail("failed to seed catalog", err)
		}
	}

	srv := server.New(a.serverConfig(), db, a.logger)
	if err := srv.Start(cmd.Context()); err != nil {
		return a.fail("server error", err)
	}
	return nil
}

func (a *app) newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a catalog fixture into the store",
		Long: `Load planets, characters and users into the store.

Rows whose id already exists are left untouched, so seeding twice is safe.
Without --file the fixture embedded in the binary is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := readCatalog(file)
			if err != nil {
				return a.fail("failed to read catalog fixture", err)
			}

			db, err := a.openStore()
			if err != nil {
				return a.fail("failed to open store", err)
			}
			defer db.Close()

			stats, err := a.seeder(db).Load(cmd.Context(), catalog)
			if err != nil {
				return a.fail("failed to seed catalog", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d planets, %d characters, %d users\n",
				stats.Planets, stats.Characters, stats.Users)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture to load instead of the embedded one")
	return cmd
}

// runRoutes wires the router over a throwaway in-memory store and prints it.
func (a *app) runRoutes(cmd *cobra.Command, _ []string) error {
	db, err := sqldb.New(":memory:")
	if err != nil {
		return a.fail("failed to open in-memory store", err)
	}
	defer db.Close()

	routes, err := server.New(a.serverConfig(), db, a.logger).Routes()
	if err != nil {
		return a.fail("failed to walk routes", err)
	}
	for _, r := range routes {
		fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", r.Method, r.Path)
	}
	return nil
}

// openStore resolves DATABASE_URL / DB_PATH and opens the store. For a SQLite
// file the parent directory is created first.
func (a *app) openStore() (*sqldb.DB, error) {
	dialect, dsn, err := sqldb.ParseTarget(a.cfg.DatabaseURL, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if dialect == sqldb.DialectSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqldb.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	a.logger.Info("store opened", slog.String("dialect", db.Dialect().String()))
	return db, nil
}

// readCatalog loads the fixture at file, or the embedded one when file is empty.
func readCatalog(file string) (*seed.Catalog, error) {
	if file != "" {
		return seed.ReadFile(file)
	}
	return seed.Default()
}

func (a *app) seeder(db *sqldb.DB) *seed.Seeder {
	return seed.NewSeeder(db, auth.NewPasswordHasher(auth.DefaultCost), a.logger)
}

func (a *app) serverConfig() server.Config {
	return server.Config{
		Port:            a.cfg.Port,
		CurrentUserID:   a.cfg.CurrentUserID,
		CORSOrigins:     a.cfg.CORSOrigins,
		ShutdownTimeout: a.cfg.ShutdownTimeout,
	}
}

// fail logs err and returns it so cobra exits non-zero.
func (a *app) fail(msg string, err error) error {
	a.logger.Error(msg, slog.String("error", err.Error()))
	return err
}
