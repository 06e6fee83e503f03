package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Show how feedback changes a plan, no profile needed",
		Run:   runDemo,
	})
	RootCmd.AddCommand(&cobra.Command{
		Use:   "goal",
		Short: "Show how the backend reads your goal",
		Run:   runGoal,
	})
}

func runDemo(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	fmt.Println("Running the feedback loop demo...")
	demo, err := app.gw.DemoPlan(cmd.Context())
	if err != nil {
		exitErr("demo", err)
	}

	fmt.Println("\n=== Before feedback ===")
	printPlan(demo.BeforePlan)
	fmt.Println("\n=== After feedback ===")
	printPlan(demo.AfterPlan)
}

func runGoal(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	user, err := app.dash.Resume(cmd.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Log in first: nutriplan login <username>")
		os.Exit(1)
	}

	result, err := app.gw.ClassifyGoal(cmd.Context(), user.GoalText)
	if err != nil {
		exitErr("classify", err)
	}
	fmt.Printf("Goal %q reads as %s (confidence %.0f%%)\n", user.GoalText, result.Label, result.Confidence*100)
}
