package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebelice/lazyview/internal/config"
	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all commands
type app struct {
	cfgFile   string
	configDir string

	cfg *config.Config
	reg *fieldtypes.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lazyview",
		Short: "Filter, sort and search table views",
		Long: `lazyview evaluates table views: nested AND/OR filters, multi-key
sortings and full text search, over JSON rows or live PostgreSQL and
SQLite tables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is <user config dir>/lazyview/config.yaml)")
	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "directory holding saved views and the password file")

	root.AddCommand(
		newEvalCmd(a),
		newQueryCmd(a),
		newScrollCmd(a),
		newDurationCmd(),
		newViewsCmd(a),
		newPasswordCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadFile(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.Init(cfg.LoggingConfig())

	loc := cfg.Location()
	a.reg = fieldtypes.Default(fieldtypes.WithClock(func() time.Time {
		return time.Now().In(loc)
	}))

	if a.configDir == "" {
		dir, err := config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to resolve config directory: %w", err)
		}
		a.configDir = dir
	}
	return nil
}
