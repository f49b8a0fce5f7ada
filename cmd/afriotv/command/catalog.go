package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"afriotv/internal/catalog"
	"afriotv/internal/live"
	"afriotv/pkg/client"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the movie and series catalog",
	Long:  `List, search and view content. Admins can also add items.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List content, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts client.ListOptions
		opts.Type, _ = cmd.Flags().GetString("type")
		opts.Genre, _ = cmd.Flags().GetString("genre")
		opts.Trending, _ = cmd.Flags().GetBool("trending")
		opts.Limit, _ = cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		items, err := newClient().ListContent(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to list content: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No content found.")
			return nil
		}
		fmt.Println(contentTable(items))
		return nil
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search titles, descriptions, genres and cast",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		items, err := newClient().SearchContent(ctx, query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(items) == 0 {
			fmt.Printf("No results for '%s'.\n", query)
			return nil
		}
		fmt.Printf("Found %d results for '%s':\n", len(items), query)
		fmt.Println(contentTable(items))
		return nil
	},
}

var catalogGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one item with its rating summary and related titles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		player, err := c.Player(ctx, args[0])
		if client.IsStatus(err, 404) {
			return fmt.Errorf("content %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get content: %w", err)
		}
		it := player.Content.Data

		titleColor.Println(it.Title)
		fmt.Printf("%s · %d · %s\n", it.Type, it.ReleaseYear, it.Duration)
		fmt.Printf("Genres: %s\n", strings.Join(it.Genres, ", "))
		if len(it.Cast) > 0 {
			fmt.Printf("Cast: %s\n", strings.Join(it.Cast, ", "))
		}
		fmt.Println()
		fmt.Println(it.Description)
		fmt.Println()

		if rv, err := c.ListReviews(ctx, args[0]); err == nil {
			avg := rv.Summary.Average
			if rv.Summary.Count == 0 {
				avg = it.Rating
			}
			fmt.Printf("Rating: %.1f (%d reviews)\n", avg, rv.Summary.Count)
		}

		if len(player.Related) > 0 {
			fmt.Println("\nMore like this:")
			fmt.Println(contentTable(player.Related))
		}
		return nil
	},
}

var catalogRelatedCmd = &cobra.Command{
	Use:   "related [id]",
	Short: "List items sharing a genre with an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		items, err := newClient().RelatedContent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get related content: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("Nothing related found.")
			return nil
		}
		fmt.Println(contentTable(items))
		return nil
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item (admins only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var it catalog.Item
		it.Title, _ = cmd.Flags().GetString("title")
		it.Type, _ = cmd.Flags().GetString("type")
		it.Description, _ = cmd.Flags().GetString("description")
		it.PosterPath, _ = cmd.Flags().GetString("poster")
		it.CoverPath, _ = cmd.Flags().GetString("cover")
		it.Genres, _ = cmd.Flags().GetStringSlice("genres")
		it.Cast, _ = cmd.Flags().GetStringSlice("cast")
		it.Rating, _ = cmd.Flags().GetFloat64("rating")
		it.Duration, _ = cmd.Flags().GetString("duration")
		it.ReleaseYear, _ = cmd.Flags().GetInt("year")
		it.IsTrending, _ = cmd.Flags().GetBool("trending")

		if err := catalog.Validate(it); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		doc, err := newClient().CreateContent(ctx, it)
		if err != nil {
			return addFailed(err)
		}
		successColor.Printf("✓ Added '%s' (ID: %s)\n", doc.Data.Title, doc.ID)
		return nil
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Add every item of a TOML or JSON catalog file (admins only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := catalog.ReadFile(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		for i, it := range items {
			doc, err := c.CreateContent(ctx, it)
			if err != nil {
				return addFailed(err)
			}
			fmt.Printf("  [%d/%d] ✓ %s (ID: %s)\n", i+1, len(items), it.Title, doc.ID)
		}
		successColor.Printf("✓ Seeded %d items\n", len(items))
		return nil
	},
}

var catalogWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the catalog live until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		items := live.NewCollection[catalog.Item](root.Bus())
		defer items.Close()
		failed := make(chan struct{}, 1)
		items.OnChange(func(s live.CollState[catalog.Item]) {
			if s.IsLoading {
				return
			}
			if s.Data == nil {
				select {
				case failed <- struct{}{}:
				default:
				}
				return
			}
			dimColor.Printf("catalog updated: %d items\n", len(s.Data))
			fmt.Println(contentTable(s.Data))
		})
		items.Watch(root.Client.Catalog())

		select {
		case <-ctx.Done():
			return nil
		case <-failed:
			return errors.New("live catalog closed")
		}
	},
}

func addFailed(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 403 {
		return fmt.Errorf("only admins can add content; run 'afriotv session refresh' if your role changed")
	}
	return fmt.Errorf("failed to add content: %w", err)
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogSearchCmd, catalogGetCmd, catalogRelatedCmd,
		catalogAddCmd, catalogSeedCmd, catalogWatchCmd)

	catalogListCmd.Flags().String("type", "", "movie or tv")
	catalogListCmd.Flags().String("genre", "", "only items with this genre")
	catalogListCmd.Flags().Bool("trending", false, "only trending items")
	catalogListCmd.Flags().Int("limit", 0, "maximum number of items")

	catalogAddCmd.Flags().String("title", "", "Title")
	catalogAddCmd.Flags().String("type", catalog.TypeMovie, "movie or tv")
	catalogAddCmd.Flags().String("description", "", "Synopsis")
	catalogAddCmd.Flags().String("poster", "", "Poster image URL")
	catalogAddCmd.Flags().String("cover", "", "Cover image URL")
	catalogAddCmd.Flags().StringSlice("genres", nil, "Comma separated genres")
	catalogAddCmd.Flags().StringSlice("cast", nil, "Comma separated cast")
	catalogAddCmd.Flags().Float64("rating", 0, "Rating from 0 to 10")
	catalogAddCmd.Flags().String("duration", "", "Running time, e.g. 1h 45m")
	catalogAddCmd.Flags().Int("year", 0, "Release year")
	catalogAddCmd.Flags().Bool("trending", false, "Show in the trending row")
	catalogAddCmd.MarkFlagRequired("title")
	catalogAddCmd.MarkFlagRequired("description")
}
