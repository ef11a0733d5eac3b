// Command intelink manages short links, statistics and access rules from
// the terminal. Tokens are kept in the console database, one row per profile.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/config"
	"github.com/intelink/console/internal/database"
	"github.com/intelink/console/internal/intelink"
	"github.com/intelink/console/internal/logger"
	"github.com/intelink/console/internal/version"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	backend string
	dbPath  string
	profile string
	timeout time.Duration
	debug   bool
}

// session is an API bound to the profile's stored tokens.
type session struct {
	api   *intelink.API
	store *client.DBStore
	db    *gorm.DB
}

func (s *session) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (o *options) open() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.backend == "" {
		o.backend = cfg.BackendURL
	}
	if o.dbPath == "" {
		o.dbPath = cfg.DatabasePath
	}
	if o.timeout <= 0 {
		o.timeout = cfg.RequestTimeout
	}

	db, err := database.Connect(o.dbPath)
	if err != nil {
		return nil, err
	}
	store := client.NewDBStore(db, o.profile)
	c := client.New(o.backend, store, client.WithTimeout(o.timeout))
	return &session{api: intelink.NewAPI(c), store: store, db: db}, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "intelink",
		Short:         "Intelink short links from the command line",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(opts.debug, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "backend base URL (default INTELINK_BACKEND_URL)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "session database path (default INTELINK_DB_PATH)")
	root.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "default", "session profile")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "request timeout (default INTELINK_REQUEST_TIMEOUT)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "verbose logging")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newURLsCmd(opts),
		newStatsCmd(opts),
		newACLCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !apperr.IsSuppressed(err) {
			fmt.Fprintln(os.Stderr, "Error:", apperr.Message(err))
		}
		stop()
		os.Exit(1)
	}
}
