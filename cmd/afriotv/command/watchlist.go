package command

import (
	"context"
	"errors"
	"fmt"

	"afriotv/internal/app"
	"afriotv/internal/catalog"
	"afriotv/internal/watchlist"
	"afriotv/pkg/client"

	"github.com/spf13/cobra"
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage your watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show your watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()
		if _, err := requireUID(root); err != nil {
			return err
		}

		state, err := root.Watchlist.Wait(ctx)
		if err != nil {
			return fmt.Errorf("failed to load watchlist: %w", err)
		}
		if len(state.Data) == 0 {
			fmt.Println("Your watchlist is empty.")
			fmt.Println("Add something with: afriotv watchlist add <content-id>")
			return nil
		}

		items, err := root.Client.ListContent(ctx, client.ListOptions{})
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		rows := make([][]string, 0, len(state.Data))
		for _, e := range state.Data {
			title := dimColor.Sprint("(removed from catalog)")
			kind := ""
			if it, ok := catalog.Find(items, e.Data.ContentID); ok {
				title = it.Data.Title
				kind = it.Data.Type
			}
			added := ""
			if !e.Data.AddedAt.IsZero() {
				added = e.Data.AddedAt.Local().Format("2006-01-02")
			}
			rows = append(rows, []string{e.Data.ContentID, title, kind, added})
		}
		fmt.Printf("Your watchlist (%d items):\n", len(rows))
		fmt.Println(renderTable([]string{"Content ID", "Title", "Type", "Added"}, rows, nil))
		return nil
	},
}

// mutateWatchlist loads the watchlist and applies fn to contentID.
func mutateWatchlist(cmd *cobra.Command, contentID string, fn func(*watchlist.Service, context.Context, string) error) error {
	root, ctx, done, err := openRoot(cmd)
	if err != nil {
		return err
	}
	defer done()
	if err := loadWatchlist(ctx, root); err != nil {
		return err
	}

	if err := fn(root.Watchlist, ctx, contentID); err != nil {
		if errors.Is(err, watchlist.ErrNotLoggedIn) {
			return fmt.Errorf("not logged in, please run 'afriotv auth login'")
		}
		return err
	}
	return nil
}

func loadWatchlist(ctx context.Context, root *app.Root) error {
	if _, err := requireUID(root); err != nil {
		return err
	}
	if _, err := root.Watchlist.Wait(ctx); err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}
	return nil
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add [content-id]",
	Short: "Add an item to your watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateWatchlist(cmd, args[0], func(s *watchlist.Service, ctx context.Context, id string) error {
			if s.IsPresent(id) {
				fmt.Println("Already in your watchlist.")
				return nil
			}
			return s.Add(ctx, id)
		})
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove [content-id]",
	Short: "Remove an item from your watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateWatchlist(cmd, args[0], func(s *watchlist.Service, ctx context.Context, id string) error {
			if !s.IsPresent(id) {
				fmt.Println("Not in your watchlist.")
				return nil
			}
			return s.Remove(ctx, id)
		})
	},
}

var watchlistToggleCmd = &cobra.Command{
	Use:   "toggle [content-id]",
	Short: "Add the item if missing, remove it otherwise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateWatchlist(cmd, args[0], (*watchlist.Service).Toggle)
	},
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd, watchlistAddCmd, watchlistRemoveCmd, watchlistToggleCmd)
}
