package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"nutriplan/internal/dashboard"
	"nutriplan/internal/nutriplan"
)

func init() {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a weekly meal plan",
		Run:   runPlan,
	}
	planCmd.Flags().Bool("classify", false, "Also show how the backend reads your goal")
	RootCmd.AddCommand(planCmd)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "meal <id>",
		Short: "Show ingredients and directions for a planned meal",
		Args:  cobra.ExactArgs(1),
		Run:   runMeal,
	})
}

func runPlan(cmd *cobra.Command, args []string) {
	classify, _ := cmd.Flags().GetBool("classify")

	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	if _, err := app.dash.Resume(cmd.Context()); err != nil {
		if errors.Is(err, dashboard.ErrNotLoggedIn) || errors.Is(err, dashboard.ErrSessionInvalid) {
			fmt.Fprintln(os.Stderr, "Log in first: nutriplan login <username>")
			os.Exit(1)
		}
		exitErr("resume", err)
	}

	if classify {
		profile := app.dash.Profile()
		result, err := app.gw.ClassifyGoal(cmd.Context(), profile.GoalText)
		if err != nil {
			// Informative only; keep going.
			fmt.Fprintf(os.Stderr, "warning: goal classification failed: %v\n", err)
		} else {
			fmt.Printf("Goal reads as %s (confidence %.0f%%)\n\n", result.Label, result.Confidence*100)
		}
	}

	fmt.Println("Generating your weekly plan...")
	plan, err := app.dash.Generate(cmd.Context())
	if err != nil {
		if _, ok, cacheErr := app.plans.Get(cmd.Context(), app.dash.Profile().ID); cacheErr == nil && ok {
			fmt.Fprintf(os.Stderr, "error: generate: %v (your previous plan is unchanged)\n", err)
			os.Exit(1)
		}
		exitErr("generate", err)
	}
	if err := app.plans.Save(cmd.Context(), app.dash.Profile().ID, plan); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not cache plan locally: %v\n", err)
	}
	printPlan(plan)
}

func runMeal(cmd *cobra.Command, args []string) {
	mealID, err := strconv.Atoi(args[0])
	if err != nil {
		exitErr("meal", fmt.Errorf("meal id must be a number, got %q", args[0]))
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

	plan, ok, err := app.plans.Get(cmd.Context(), app.dash.Profile().ID)
	if err != nil {
		exitErr("load cached plan", err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "No plan yet. Run `nutriplan plan` first.")
		os.Exit(1)
	}

	for _, day := range sortedDays(plan) {
		for _, meal := range []*nutriplan.PlannedMeal{plan[day].Breakfast, plan[day].Lunch, plan[day].Dinner} {
			if meal != nil && meal.ID == mealID {
				printMealDetail(*meal)
				return
			}
		}
	}
	fmt.Fprintf(os.Stderr, "No meal #%d in the current plan.\n", mealID)
	os.Exit(1)
}

func printMealDetail(meal nutriplan.PlannedMeal) {
	fmt.Printf("%s (#%d)\n", meal.Title, meal.ID)
	fmt.Printf("%.0f kcal, protein %.0fg, fat %.0fg, carbs %.0fg\n\n",
		meal.Calories, meal.Macros.Protein, meal.Macros.Fat, meal.Macros.Carbs)

	fmt.Println("Ingredients:")
	if len(meal.Ingredients) == 0 {
		fmt.Println("  (not available yet)")
	}
	for _, item := range meal.Ingredients {
		fmt.Printf("  - %s\n", item)
	}

	fmt.Println("\nDirections:")
	if meal.Recipe == "" {
		fmt.Println("  (not available yet)")
		return
	}
	fmt.Println(meal.Recipe)
}
