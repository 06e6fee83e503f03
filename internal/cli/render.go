package cli

import (
	"fmt"
	"sort"
	"strings"

	"nutriplan/internal/nutriplan"
)

var weekdayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

func sortedDays(plan nutriplan.WeeklyPlan) []string {
	days := make([]string, 0, len(plan))
	for day := range plan {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		oi, iKnown := weekdayOrder[strings.ToLower(days[i])]
		oj, jKnown := weekdayOrder[strings.ToLower(days[j])]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return days[i] < days[j]
		}
	})
	return days
}

func printPlan(plan nutriplan.WeeklyPlan) {
	if len(plan) == 0 {
		fmt.Println("Sorry, we couldn't generate a plan. Please try again.")
		return
	}
	for _, day := range sortedDays(plan) {
		dayPlan := plan[day]
		fmt.Println(strings.ToUpper(day))
		printSlot("breakfast", dayPlan.Breakfast)
		printSlot("lunch", dayPlan.Lunch)
		printSlot("dinner", dayPlan.Dinner)
		fmt.Println()
	}
	fmt.Println("Run `nutriplan meal <id>` for ingredients and directions.")
}

func printSlot(slot string, meal *nutriplan.PlannedMeal) {
	if meal == nil {
		fmt.Printf("  %-9s  (no meal planned)\n", slot)
		return
	}
	fmt.Printf("  %-9s  #%-4d %s  (%.0f kcal, P%.0f F%.0f C%.0f)\n",
		slot, meal.ID, meal.Title, meal.Calories,
		meal.Macros.Protein, meal.Macros.Fat, meal.Macros.Carbs)
}

func printProfile(user *nutriplan.User) {
	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Name)
	fmt.Printf("Goal: %q\n", user.GoalText)

	if len(user.Preferences) > 0 {
		keys := make([]string, 0, len(user.Preferences))
		for key, enabled := range user.Preferences {
			if enabled {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			fmt.Printf("Preferences: %s\n", strings.Join(keys, ", "))
		}
	}
}
