package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soaringjerry/psyscore/internal/config"
	"github.com/soaringjerry/psyscore/internal/db"
	"github.com/soaringjerry/psyscore/internal/services"
	"github.com/soaringjerry/psyscore/internal/utils"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
	logOut     io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logOut: os.Stderr}

	root := &cobra.Command{
		Use:   "psyscore",
		Short: "Psychometric survey scoring service",
		Long: `psyscore hands out questionnaires, scores submitted answers into result
bands and keeps each user's scored attempts.

Configuration comes from psyscore.yaml, a .env file and PSYSCORE_* environment
variables; flags override all of them.`,
		SilenceUsage:  true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Config file (default ./psyscore.yaml if present)")
	flags.String("db-driver", "", "Database driver (sqlite3|sqlite|postgres)")
	flags.String("db-dsn", "", "Database DSN or file path")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (text|json)")

	_ = a.v.BindPFlag("db.driver", flags.Lookup("db-driver"))
	_ = a.v.BindPFlag("db.dsn", flags.Lookup("db-dsn"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newMCPCmd(a),
		newTokenCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg
	if a.logOut != nil {
		logOut = a.logOut
	}
	a.logger = utils.NewLogger(logOut, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)
	return nil
}

// openStore connects, migrates and wraps the configured database.
// The returned close function must be called when the command ends.
func (a *app) openStore(ctx context.Context) (*db.SQLStore, func(), error) {
	conn, err := db.Open(db.Options{
		Driver:       a.cfg.DB.Driver,
		DSN:          a.cfg.DB.DSN,
		MaxOpenConns: a.cfg.DB.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := conn.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
	if err := pingAndMigrate(ctx, conn, a.cfg.DB.Migrations); err != nil {
		closeFn()
		return nil, nil, err
	}
	store, err := db.NewSQLStore(conn, a.cfg.DB.Driver)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	store.SetTimeout(a.cfg.Storage.Timeout)
	store.SetLogger(a.logger)
	return store, closeFn, nil
}

func pingAndMigrate(ctx context.Context, conn *sql.DB, dir string) error {
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := db.RunMigrations(ctx, conn, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (a *app) surveyService(store services.Store) *services.SurveyService {
	svc := services.NewSurveyService(store)
	svc.SetListType(a.cfg.Survey.ListType)
	svc.SetLogger(a.logger)
	return svc
}
