package cli

import (
	"github.com/spf13/cobra"

	"nutriplan/internal/nutriplan"
)

func init() {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a profile and log in",
		Args:  cobra.ExactArgs(1),
		Run:   runRegister,
	}

	cmd.Flags().String("name", "", "Display name (required)")
	cmd.Flags().Int("age", 0, "Age in years, 13 or older (required)")
	cmd.Flags().String("goal", "", "Free-text goal, e.g. \"lose weight gently\" (required)")
	cmd.Flags().Float64("weight", 0, "Weight in kg")
	cmd.Flags().Float64("height", 0, "Height in cm")
	cmd.Flags().String("sex", "", "Sex (free text)")
	cmd.Flags().String("activity", "", "Activity level: sedentary, lightly_active, moderately_active, very_active")
	cmd.Flags().StringSlice("pref", nil, "Dietary preference to enable (repeatable), e.g. --pref vegetarian")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("age")
	cmd.MarkFlagRequired("goal")

	RootCmd.AddCommand(cmd)
}

func runRegister(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	age, _ := cmd.Flags().GetInt("age")
	goal, _ := cmd.Flags().GetString("goal")
	weight, _ := cmd.Flags().GetFloat64("weight")
	height, _ := cmd.Flags().GetFloat64("height")
	sex, _ := cmd.Flags().GetString("sex")
	activity, _ := cmd.Flags().GetString("activity")
	prefList, _ := cmd.Flags().GetStringSlice("pref")

	payload := nutriplan.UserPayload{
		Username:      args[0],
		Name:          name,
		Age:           age,
		Sex:           sex,
		ActivityLevel: activity,
		GoalText:      goal,
		Preferences:   map[string]bool{},
	}
	if weight > 0 {
		payload.WeightKg = &weight
	}
	if height > 0 {
		payload.HeightCm = &height
	}
	for _, key := range prefList {
		payload.Preferences[key] = true
	}

	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	user, err := app.dash.Register(cmd.Context(), payload)
	if err != nil {
		exitErr("register", err)
	}
	printProfile(user)
}
