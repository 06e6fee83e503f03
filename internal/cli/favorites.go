package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List meals you rated highly",
		Run:   runFavorites,
	}
	cmd.Flags().Int("min-rating", 4, "Only show meals rated this many stars or higher")
	RootCmd.AddCommand(cmd)
}

func runFavorites(cmd *cobra.Command, args []string) {
	minRating, _ := cmd.Flags().GetInt("min-rating")
	if minRating < 1 || minRating > 5 {
		exitErr("favorites", fmt.Errorf("min-rating must be between 1 and 5, got %d", minRating))
	}

	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	if _, err := app.dash.Resume(cmd.Context()); err != nil {
		fmt.Fprintln(os.Stderr, "Log in first: nutriplan login <username>")
		os.Exit(1)
	}

	if err := app.dash.RefreshFavorites(cmd.Context(), minRating); err != nil {
		exitErr("favorites", err)
	}

	meals, minRating := app.dash.Favorites()
	if len(meals) == 0 {
		fmt.Printf("No favorites yet. Rate some meals %d stars or higher to see them here.\n", minRating)
		return
	}
	for _, meal := range meals {
		fmt.Printf("  #%-4d %s  (%.0f stars)\n", meal.ID, meal.Title, meal.Rating)
	}
}
