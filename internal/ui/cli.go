// Package ui implements the agenda command line.
package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/db"
	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/hooks"
	"github.com/javiermolinar/agenda/internal/timetable"
	"github.com/javiermolinar/agenda/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// Store is the storage the CLI works against.
type Store interface {
	timetable.Repository
	ListEventDays(ctx context.Context, eventID int64, loc *time.Location) ([]time.Time, error)
}

// App holds the CLI application state.
type App struct {
	store  Store
	config *config.Config
	root   *cobra.Command
	hooks  *hooks.Registry
	debug  bool // Enable debug logging
	now    func() time.Time

	configPath string
}

// NewApp creates a new CLI application. A nil store is opened lazily from the
// configured database path by the commands that need one.
func NewApp(store Store, cfg *config.Config) *App {
	a := &App{
		store:      store,
		config:     cfg,
		hooks:      hooks.New(),
		now:        time.Now,
		configPath: config.DefaultConfigPath(),
	}
	registerHooks(a.hooks)

	var eventID int64
	var day string

	a.root = &cobra.Command{
		Use:   "agenda",
		Short: "Reschedule conference timetables",
		Long: `Agenda compacts the timetable of a conference day.

Entries can be moved back to back after the day start (time mode), or
stretched to fill the time until the next entry (duration mode), with
an optional gap between them. Session blocks can be resized to fit
their contents first.

Run without a command to open the interactive preview.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return debuglog.Init(a.debug || a.config.Log.Debug, a.config.Log.Path)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.ensureStore(); err != nil {
				return err
			}
			event, err := a.resolveEvent(ctx, eventID)
			if err != nil {
				return err
			}
			var opts []tui.ModelOption
			if day != "" {
				d, err := a.resolveDay(ctx, event, day)
				if err != nil {
					return err
				}
				opts = append(opts, tui.WithDay(d))
			}
			return tui.Run(a.store, a.hooks, event, a.config, opts...)
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (writes "+debuglog.DefaultPath+")")
	a.root.Flags().Int64Var(&eventID, "event", 0, "Event ID (defaults to the configured or only event)")
	a.root.Flags().StringVar(&day, "day", "", "Day to open (YYYY-MM-DD)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.eventsCmd())
	a.root.AddCommand(a.daysCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.rescheduleCmd())
	a.root.AddCommand(a.importCmd())
	a.root.AddCommand(a.exportCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agenda %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.ExecuteContext(context.Background())
}

// Close releases the store and flushes the debug log.
func (a *App) Close() error {
	debuglog.Close()
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// ensureStore opens the configured database if no store was supplied.
func (a *App) ensureStore() error {
	if a.store != nil {
		return nil
	}
	store, err := openStore(a.config.Storage.DBPath)
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

func openStore(dbPath string) (*db.SQLite, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}
