package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OneVth/prj-board/internal/config"
	"github.com/OneVth/prj-board/internal/feed"
	"github.com/OneVth/prj-board/internal/store"
)

var (
	flagSearchSort  string
	flagSearchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the saved snapshot offline",
	Long: `Search post titles and content in the locally saved snapshot, without
touching the network. An empty query lists the most recent saved posts.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sort, err := feed.ParseSortKey(flagSearchSort)
		if err != nil {
			return fmt.Errorf("invalid --sort value: %w", err)
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

		query := strings.TrimSpace(strings.Join(args, " "))
		posts, err := st.SearchSaved(ctx, query, sort, flagSearchLimit)
		if err != nil {
			return fmt.Errorf("searching snapshot: %w", err)
		}

		if len(posts) == 0 {
			if query == "" {
				fmt.Println("The snapshot is empty. Run the TUI once to save a feed.")
			} else {
				fmt.Printf("No saved posts match %q.\n", query)
			}
			return nil
		}

		for _, p := range posts {
			fmt.Printf("%s  @%s  %d likes, %d comments  [%s]\n",
				p.Title, p.AuthorUsername, p.Likes, p.CommentCount,
				p.CreatedAt.Local().Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchSort, "sort", "date", "order results by date, likes or comments")
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 20, "maximum number of results")
}
