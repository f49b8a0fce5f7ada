package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"afriotv/internal/app"
	"afriotv/internal/reviews"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Read and write reviews",
}

// openReviews follows contentID's reviews until the first snapshot.
func openReviews(ctx context.Context, root *app.Root, contentID string) error {
	root.Reviews.Open(contentID)
	if _, err := root.Reviews.Wait(ctx); err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}
	return nil
}

var reviewListCmd = &cobra.Command{
	Use:   "list [content-id]",
	Short: "Show the reviews of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()

		item, err := root.Client.GetContent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get content: %w", err)
		}
		if err := openReviews(ctx, root, args[0]); err != nil {
			return err
		}

		sum := root.Reviews.Summary(item.Data.Rating)
		titleColor.Println(item.Data.Title)
		fmt.Printf("Rating: %.1f (%d reviews)\n", sum.Average, sum.Count)

		state := root.Reviews.State()
		if len(state.Data) == 0 {
			fmt.Println("No reviews yet. Be the first to leave one!")
			return nil
		}
		rows := make([][]string, 0, len(state.Data))
		for _, r := range state.Data {
			rows = append(rows, []string{
				r.Data.DisplayName,
				stars(r.Data.Rating),
				r.Data.CreatedAt.Local().Format("2006-01-02"),
				r.Data.Comment,
			})
		}
		fmt.Println(renderTable([]string{"By", "Rating", "Date", "Comment"}, rows, nil))
		return nil
	},
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit [content-id]",
	Short: "Review an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, _ := cmd.Flags().GetInt("rating")
		comment, _ := cmd.Flags().GetString("comment")

		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()
		if err := openReviews(ctx, root, args[0]); err != nil {
			return err
		}

		err = root.Reviews.Submit(ctx, reviews.Input{Rating: rating, Comment: strings.TrimSpace(comment)})
		var verr *reviews.ValidationError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &verr):
			for field, msg := range verr.Fields {
				errorColor.Printf("  %s: ", field)
				fmt.Println(msg)
			}
			return errors.New("review not submitted")
		case errors.Is(err, reviews.ErrAlreadyReviewed):
			return errors.New("you have already reviewed this title")
		case errors.Is(err, reviews.ErrNotLoggedIn):
			return fmt.Errorf("not logged in, please run 'afriotv auth login'")
		default:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewListCmd, reviewSubmitCmd)

	reviewSubmitCmd.Flags().IntP("rating", "r", 0, "Stars from 1 to 5")
	reviewSubmitCmd.Flags().StringP("comment", "c", "", "Your review (10 to 1000 characters)")
	reviewSubmitCmd.MarkFlagRequired("rating")
	reviewSubmitCmd.MarkFlagRequired("comment")
}
