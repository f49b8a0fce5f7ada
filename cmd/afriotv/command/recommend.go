package command

import (
	"fmt"
	"strings"

	"afriotv/internal/app"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Ask the AI for titles based on what you have watched",
	Example: `  afriotv recommend --history "King of Boys,Lionheart"
  afriotv recommend --history "Blood Sisters" --prefs "thrillers set in Lagos"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		history, _ := cmd.Flags().GetStringSlice("history")
		prefs, _ := cmd.Flags().GetString("prefs")
		if len(history) == 0 {
			return fmt.Errorf("tell us at least one title you have watched with --history")
		}

		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()

		fmt.Println("Thinking...")
		printRecommendations(root.Recommend(ctx, history, strings.TrimSpace(prefs)))
		return nil
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar [content-id]",
	Short: "Ask the AI for titles similar to an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()

		printRecommendations(root.Similar(ctx, args[0]))
		return nil
	},
}

func printRecommendations(res app.Recommendations) {
	if res.Message != "" {
		fmt.Println(res.Message)
		if verbose && len(res.Titles) > 0 {
			dimColor.Printf("suggested: %s\n", strings.Join(res.Titles, ", "))
		}
		return
	}
	titleColor.Println("Recommended for you")
	fmt.Println(contentTable(res.Items))
}

func init() {
	rootCmd.AddCommand(recommendCmd, similarCmd)

	recommendCmd.Flags().StringSlice("history", nil, "Comma separated titles you have watched")
	recommendCmd.Flags().String("prefs", "", "Anything else you are in the mood for")
}
