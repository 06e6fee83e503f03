// Package cli implements the nutriplan CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nutriplan/internal/config"
	"nutriplan/internal/dashboard"
	"nutriplan/internal/database"
	"nutriplan/internal/identity"
	"nutriplan/internal/metrics"
	"nutriplan/internal/nutriplan"
	"nutriplan/internal/plancache"
)

var (
	apiFlag string
	dbFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "nutriplan",
	Short: "Weekly meal plans from your terminal",
	Long:  "A terminal frontend for the NutriPlan backend. Log in once, then generate, inspect, and rate weekly meal plans.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Backend base URL (default: $NUTRIPLAN_API_URL or "+config.DefaultAPIBaseURL+")")
	RootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Local state path (default: $NUTRIPLAN_DB_PATH or data/nutriplan.db)")
}

// app bundles everything a command needs. Close releases the database.
type app struct {
	cfg   *config.Config
	db    *database.DB
	gw    nutriplan.Client
	dash  *dashboard.Dashboard
	plans *plancache.Store
}

func (a *app) Close() {
	a.db.Close()
}

func openApp() (*app, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiFlag != "" {
		cfg.APIBaseURL = apiFlag
	}
	if dbFlag != "" {
		cfg.DatabasePath = dbFlag
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}

	ids, err := identity.NewStore(db.SQL)
	if err != nil {
		db.Close()
		return nil, err
	}
	metricsStore, err := metrics.NewStore(db.SQL)
	if err != nil {
		db.Close()
		return nil, err
	}
	plans, err := plancache.NewStore(db.SQL)
	if err != nil {
		db.Close()
		return nil, err
	}

	gw := nutriplan.NewClient(cfg, metricsStore)
	return &app{
		cfg:   cfg,
		db:    db,
		gw:    gw,
		dash:  dashboard.New(gw, ids, cfg.CalorieTarget),
		plans: plans,
	}, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
