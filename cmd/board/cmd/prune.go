package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OneVth/prj-board/internal/config"
	"github.com/OneVth/prj-board/internal/store"
)

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old posts from the saved snapshot",
	Long: `Delete snapshot posts saved longer ago than the given age and reclaim disk space.

The session and UI preferences are kept; the next run simply starts with a
smaller (or empty) offline snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, err := parseAge(flagPruneOlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value: %w", err)
		}
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive: %s", flagPruneOlderThan)
		}

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := st.Init(ctx); err != nil {
			return fmt.Errorf("preparing store: %w", err)
		}
		deleted, err := st.Prune(ctx, age)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d post(s) older than %s.\n", deleted, flagPruneOlderThan)
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "30d", "drop snapshot posts older than this age (e.g. 30d, 720h)")
}

// parseAge reads a duration with an extra day suffix, so retention ages
// read naturally.
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
