package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rate <meal-id> <rating>",
		Short: "Rate a meal from 1 to 5 stars",
		Args:  cobra.ExactArgs(2),
		Run:   runRate,
	}
	cmd.Flags().String("comment", "", "Optional comment to send with the rating")
	RootCmd.AddCommand(cmd)
}

func runRate(cmd *cobra.Command, args []string) {
	mealID, err := strconv.Atoi(args[0])
	if err != nil {
		exitErr("rate", fmt.Errorf("meal id must be a number, got %q", args[0]))
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		exitErr("rate", fmt.Errorf("rating must be a number, got %q", args[1]))
	}
	comment, _ := cmd.Flags().GetString("comment")

	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	if _, err := app.dash.Resume(cmd.Context()); err != nil {
		fmt.Fprintln(os.Stderr, "Log in first: nutriplan login <username>")
		os.Exit(1)
	}

	if err := app.dash.RateMeal(cmd.Context(), mealID, rating, comment); err != nil {
		exitErr("rate", err)
	}
	fmt.Printf("Rated meal #%d with %d stars.\n", mealID, rating)
}
