// Package main provides the cadence CLI: recurring tasks, their cycles, and
// the reference records around them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dukaforge/cadence/internal/lifecycle"
	"github.com/dukaforge/cadence/internal/logging"
	"github.com/dukaforge/cadence/internal/notify"
	"github.com/dukaforge/cadence/internal/records"
	"github.com/dukaforge/cadence/internal/schema"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/internal/tasklist"
	"github.com/dukaforge/cadence/pkg/types"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagBackend   string
)

// Application state, initialized by PersistentPreRunE.
var (
	appLogger   *slog.Logger
	logShutdown func(context.Context) error
	st          store.Store
	engine      *lifecycle.Engine
	aggregator  *tasklist.Aggregator
	scheduler   *notify.Scheduler
	taskSvc     *records.TaskService
	customerSvc *records.CustomerService
	taskTypeSvc *records.TaskTypeService
	channelSvc  *records.NotificationTypeService
	manager     *schema.Manager
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence is a recurring-task reminder tracker",
	Long: `Cadence tracks recurring tasks through successive cycles: pending,
in progress, completed or skipped. It computes due dates from each task's
frequency, derives overdue state from the clock, and keeps reference records
for customers, task types, and notification channels.`,
	PersistentPreRunE: initApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.cadence-db)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: sqlite or memory (default: sqlite)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(customerCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(channelCmd)
}

// initApp loads config, installs logging, opens the store, migrates the
// schema, and wires the services.
func initApp(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	var err error
	appLogger, logShutdown, err = logging.Setup(cmd.Context())
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	cfg, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err = store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	manager = schema.NewManager(st, appLogger)
	if err := manager.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	engine = lifecycle.NewEngine(st, appLogger)
	aggregator = tasklist.NewAggregator(st, appLogger)
	reload := func(ctx context.Context) error {
		_, err := aggregator.LoadList(ctx, types.ViewAll)
		return err
	}

	dispatcher := notify.NewLogDispatcher(appLogger)
	engine.SetDispatcher(dispatcher)
	scheduler = notify.NewScheduler(dispatcher, func(ctx context.Context) ([]types.Task, error) {
		return taskSvc.GetAll(ctx)
	}, appLogger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	taskSvc = records.NewTaskService(st, engine, scheduler, reload, appLogger)
	customerSvc = records.NewCustomerService(st, reload, appLogger)
	taskTypeSvc = records.NewTaskTypeService(st, appLogger)
	channelSvc = records.NewNotificationTypeService(st, appLogger)
	return nil
}

// closeApp releases everything initApp set up.
func closeApp() error {
	if scheduler != nil {
		scheduler.Stop()
	}
	var firstErr error
	if st != nil {
		if err := st.Close(); err != nil {
			firstErr = err
		}
	}
	if logShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := logShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
