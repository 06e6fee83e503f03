package telegram

import (
	"fmt"
	"sort"
	"strings"

	"nutriplan/internal/nutriplan"
)

// Fallback texts shown in place of missing data.
const (
	noPlanText        = "Sorry, we couldn't generate a plan. Please try again."
	noMealText        = "No meal planned."
	noIngredientsText = "Ingredient data not available yet."
	noRecipeText      = "Recipe data not available yet."
)

// titleCase uppercases the first rune of a day label.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var weekdayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// sortedDays returns the plan's day labels in weekday order; unknown
// labels sort after the known ones, alphabetically.
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

func formatPlanMarkdown(plan nutriplan.WeeklyPlan) string {
	if len(plan) == 0 {
		return noPlanText
	}

	var sb strings.Builder
	sb.WriteString("📅 *Your 7-Day Meal Plan*\n\n")
	for _, day := range sortedDays(plan) {
		dayPlan := plan[day]
		sb.WriteString(fmt.Sprintf("*%s*\n", titleCase(day)))
		writeSlot(&sb, "Breakfast", dayPlan.Breakfast)
		writeSlot(&sb, "Lunch", dayPlan.Lunch)
		writeSlot(&sb, "Dinner", dayPlan.Dinner)
		sb.WriteString("\n")
	}
	sb.WriteString("_Send /meal <id> for ingredients and directions._")
	return sb.String()
}

func writeSlot(sb *strings.Builder, slot string, meal *nutriplan.PlannedMeal) {
	if meal == nil {
		fmt.Fprintf(sb, "• %s: _%s_\n", slot, noMealText)
		return
	}
	fmt.Fprintf(sb, "• %s: %s `#%d` (🔥 %.0f kcal, P%.0f F%.0f C%.0f)\n",
		slot, meal.Title, meal.ID, meal.Calories,
		meal.Macros.Protein, meal.Macros.Fat, meal.Macros.Carbs)
}

func formatMealDetail(meal nutriplan.PlannedMeal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽 *%s*\n\n", meal.Title)
	fmt.Fprintf(&sb, "🔥 %.0f kcal • P %.0fg • F %.0fg • C %.0fg\n\n",
		meal.Calories, meal.Macros.Protein, meal.Macros.Fat, meal.Macros.Carbs)

	sb.WriteString("*Ingredients*\n")
	if len(meal.Ingredients) == 0 {
		fmt.Fprintf(&sb, "_%s_\n", noIngredientsText)
	} else {
		for _, item := range meal.Ingredients {
			fmt.Fprintf(&sb, "• %s\n", item)
		}
	}

	sb.WriteString("\n*Directions*\n")
	if meal.Recipe == "" {
		fmt.Fprintf(&sb, "_%s_\n", noRecipeText)
	} else {
		sb.WriteString(flattenHTML(meal.Recipe))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatFavorites(meals []nutriplan.LikedMeal, minRating int) string {
	var sb strings.Builder
	sb.WriteString("❤️ *Your Favorite Meals*\n\n")
	if len(meals) == 0 {
		fmt.Fprintf(&sb, "_Rate some meals %d stars or higher to see them here!_", minRating)
		return sb.String()
	}
	for _, meal := range meals {
		fmt.Fprintf(&sb, "• %s (%.0f★)\n", meal.Title, meal.Rating)
	}
	return sb.String()
}

func formatPreferences(profile *nutriplan.User) string {
	var sb strings.Builder
	sb.WriteString("⚙️ *Your Preferences*\n\n")
	sb.WriteString("_Changes apply the next time you generate a plan._\n\n")

	keys := make([]string, 0, len(profile.Preferences))
	for key := range profile.Preferences {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		mark := "⬜"
		if profile.Preferences[key] {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, strings.ReplaceAll(key, "_", " "))
	}
	if len(keys) == 0 {
		sb.WriteString("_No preferences set yet._\n")
	}
	return sb.String()
}

func formatProfile(profile *nutriplan.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Welcome, *%s*!\n", profile.Name)
	fmt.Fprintf(&sb, "*Your Goal:* \"%s\"\n\n", profile.GoalText)
	fmt.Fprintf(&sb, "• Age: %d\n", profile.Age)
	fmt.Fprintf(&sb, "• Height: %s cm\n", formatOptional(profile.HeightCm))
	fmt.Fprintf(&sb, "• Weight: %s kg\n", formatOptional(profile.WeightKg))
	return sb.String()
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", *v)
}

func formatDemo(demo *nutriplan.DemoPlan) (string, string) {
	before := "🧪 *Before feedback*\n\n" + formatPlanBody(demo.BeforePlan)
	after := "✨ *After feedback*\n\n" + formatPlanBody(demo.AfterPlan)
	return before, after
}

func formatPlanBody(plan nutriplan.WeeklyPlan) string {
	if len(plan) == 0 {
		return noPlanText
	}
	var sb strings.Builder
	for _, day := range sortedDays(plan) {
		dayPlan := plan[day]
		fmt.Fprintf(&sb, "*%s*\n", titleCase(day))
		writeSlot(&sb, "Breakfast", dayPlan.Breakfast)
		writeSlot(&sb, "Lunch", dayPlan.Lunch)
		writeSlot(&sb, "Dinner", dayPlan.Dinner)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatClassification(result *nutriplan.GoalClassification) string {
	return fmt.Sprintf("🎯 Goal reads as *%s* (confidence %.0f%%)",
		strings.ReplaceAll(result.Label, "_", " "), result.Confidence*100)
}
