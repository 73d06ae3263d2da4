package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/knagato/hansei/internal/archive"
	"github.com/knagato/hansei/internal/config"
	"github.com/knagato/hansei/internal/pipeline"
	"github.com/knagato/hansei/internal/server"
	"github.com/knagato/hansei/internal/window"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hansei",
	Short:   "Periodic reflection reports",
	Long:    "hansei aggregates daily reflection entries from a knowledge base into periodic rollup reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("hansei", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/hansei/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your knowledge base collections.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Archive: %s\n\n", db.Path())
		fmt.Printf("Reports archived: %d\n", stats.Reports)
		fmt.Printf("Runs recorded:    %d (%d failed)\n", stats.Runs, stats.FailedRuns)
		if stats.LastWindowKey != "" {
			fmt.Printf("Latest window:    %s\n", stats.LastWindowKey)
		}
		return nil
	},
}

// --- report command ---

var (
	startDate string
	endDate   string
	lastDays  int
	dryRun    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and publish the report for a window",
	Long: `Generate the rollup report for a date window and publish it to the
knowledge base. With no flags, covers the configured default number of
days ending today. Regenerating a window replaces its prior report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		w, err := resolveWindow()
		if err != nil {
			return err
		}

		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(w)
		} else {
			result = pipe.Run(context.Background(), w)
		}

		fmt.Printf("Window: %s (%s)\n", w.Key(), w.Display())
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.State == pipeline.StateFailed {
			return fmt.Errorf("run failed: %w", result.Err)
		}
		if !dryRun {
			fmt.Println("\nReport published. Run 'hansei serve' to view it.")
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&startDate, "start", "", "Window start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&endDate, "end", "", "Window end date (YYYY-MM-DD)")
	reportCmd.Flags().IntVar(&lastDays, "days", 0, "Cover the last N days ending today")
	reportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// resolveWindow builds the window from --start/--end, --days, or the
// configured default lookback.
func resolveWindow() (window.Window, error) {
	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return window.Window{}, fmt.Errorf("%w: --start and --end must be given together",
				window.ErrInvalidWindow)
		}
		return window.Parse(startDate, endDate)
	}

	days := lastDays
	if days <= 0 {
		days = cfg.Report.DefaultDays
	}
	return window.LastDays(time.Now(), days), nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local report viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on")
}

func openArchive() (*archive.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return archive.Open(filepath.Join(dataDir, "hansei.db"))
}
