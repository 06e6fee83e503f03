package nutriplan

// Macros is the macronutrient breakdown of a planned meal, in grams.
type Macros struct {
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

// PlannedMeal is a single meal slot entry in a weekly plan. Ingredients and
// Recipe may be absent when the backend has not enriched the meal yet.
type PlannedMeal struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Calories    float64  `json:"calories"`
	Macros      Macros   `json:"macros"`
	Ingredients []string `json:"ingredients,omitempty"`
	Recipe      string   `json:"recipe,omitempty"`
}

// DailyPlan holds the three meal slots of one day. A nil slot means no meal
// was planned for it, which is distinct from an entirely empty plan.
type DailyPlan struct {
	Breakfast *PlannedMeal `json:"breakfast"`
	Lunch     *PlannedMeal `json:"lunch"`
	Dinner    *PlannedMeal `json:"dinner"`
}

// WeeklyPlan maps day labels to daily plans. An empty map signals that the
// backend could not generate a plan at all.
type WeeklyPlan map[string]DailyPlan

// UserPayload is the request body for registering or updating a user.
type UserPayload struct {
	Username      string          `json:"username"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	WeightKg      *float64        `json:"weight_kg,omitempty"`
	HeightCm      *float64        `json:"height_cm,omitempty"`
	Sex           string          `json:"sex,omitempty"`
	ActivityLevel string          `json:"activity_level,omitempty"`
	Preferences   map[string]bool `json:"preferences"`
	GoalText      string          `json:"goal_text"`
}

// User is the backend's profile record. ID is immutable and keys every
// subsequent plan, feedback, and favorites request.
type User struct {
	ID            int             `json:"id"`
	Username      string          `json:"username"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	WeightKg      *float64        `json:"weight_kg"`
	HeightCm      *float64        `json:"height_cm"`
	Sex           string          `json:"sex"`
	ActivityLevel string          `json:"activity_level"`
	Preferences   map[string]bool `json:"preferences"`
	GoalText      string          `json:"goal_text"`
}

// PlanRequest is the request body for generating a weekly plan.
type PlanRequest struct {
	UserID             int      `json:"user_id"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Allergies          []string `json:"allergies"`
	CalorieTarget      int      `json:"calorie_target"`
	GoalText           string   `json:"goal_text"`
}

// Feedback is a meal rating submission.
type Feedback struct {
	UserID  int    `json:"user_id"`
	MealID  int    `json:"meal_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// LikedMeal is a favorites projection: a meal the user rated at or above
// the query threshold.
type LikedMeal struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// DemoPlan pairs the plans generated before and after simulated feedback.
type DemoPlan struct {
	BeforePlan WeeklyPlan `json:"before_plan"`
	AfterPlan  WeeklyPlan `json:"after_plan"`
}

// GoalClassification is the backend's reading of a free-text goal.
type GoalClassification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
