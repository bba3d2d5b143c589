package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/OneVth/prj-board/internal/app"
	"github.com/OneVth/prj-board/internal/config"
	"github.com/OneVth/prj-board/internal/logging"
	"github.com/OneVth/prj-board/internal/store"
	"github.com/OneVth/prj-board/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "board",
	Short: "Terminal client for the community board",
	Long:  "board browses a community board from the terminal: an infinite-scroll feed with search, sorting, likes and comments, readable offline from the last saved snapshot.",
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(searchCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("board %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.LogPath != "" {
		if err := logging.Init(cfg.LogPath, cfg.LogLevel); err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	a, err := app.New(startCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}

	model := tui.NewModel(tui.Options{
		Engine:    a.Engine,
		Account:   a.Session,
		API:       a.Client,
		Snapshot:  a.Store,
		SeedPosts: a.SeedPosts,
		Preferences: tui.Preferences{
			VerboseFooter: a.Preferences.VerboseFooter,
			RelativeTime:  a.Preferences.RelativeTime,
		},
		APIBaseURL: cfg.APIBaseURL,
		SavePreferences: func(ctx context.Context, p tui.Preferences) error {
			return a.Store.SavePreferences(ctx, store.Preferences{
				VerboseFooter: p.VerboseFooter,
				RelativeTime:  p.RelativeTime,
			})
		},
	})

	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := a.Close(closeCtx); err != nil {
		if runErr == nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		logging.Warn("shutdown failed", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("tui error: %w", runErr)
	}
	return nil
}
