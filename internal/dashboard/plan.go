package dashboard

import (
	"context"
	"errors"
	"sort"

	"nutriplan/internal/nutriplan"
)

// PlanState is the orchestrator's lifecycle state. A failed generation is
// transient and reverts to whichever state held before it.
type PlanState int

const (
	PlanStateNoPlan PlanState = iota
	PlanStateGenerating
	PlanStateReady
)

func (s PlanState) String() string {
	switch s {
	case PlanStateGenerating:
		return "generating"
	case PlanStateReady:
		return "ready"
	default:
		return "no plan"
	}
}

// ErrGenerationInFlight is returned when Generate is called while a
// generation is already running. Concurrent regenerate requests are
// rejected rather than queued; the triggering control is expected to be
// disabled while busy.
var ErrGenerationInFlight = errors.New("plan generation already in flight")

// Generate requests a fresh weekly plan for the loaded profile. The plan
// request is derived from the profile on every call, so preference changes
// made since the last generation are always reflected. On success the new
// plan replaces the old one atomically; on failure the previously
// displayed plan, if any, stays untouched.
func (d *Dashboard) Generate(ctx context.Context) (nutriplan.WeeklyPlan, error) {
	d.mu.Lock()
	if d.profile == nil {
		d.mu.Unlock()
		return nil, ErrNoProfile
	}
	if d.generating {
		d.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	d.generating = true
	req := BuildPlanRequest(d.profile, d.calorieTarget)
	d.mu.Unlock()

	plan, err := d.gw.GeneratePlan(ctx, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.generating = false
	if err != nil {
		return nil, err
	}
	d.plan = plan
	return plan, nil
}

// Plan returns the currently displayed plan (nil before the first
// successful generation) and the orchestrator state.
func (d *Dashboard) Plan() (nutriplan.WeeklyPlan, PlanState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.plan, d.stateLocked()
}

func (d *Dashboard) stateLocked() PlanState {
	if d.generating {
		return PlanStateGenerating
	}
	if d.plan != nil {
		return PlanStateReady
	}
	return PlanStateNoPlan
}

// BuildPlanRequest derives a plan request from a profile. It is pure and
// deterministic: dietary preferences are exactly the preference keys
// currently true, in sorted order.
func BuildPlanRequest(profile *nutriplan.User, calorieTarget int) nutriplan.PlanRequest {
	prefs := make([]string, 0, len(profile.Preferences))
	for key, enabled := range profile.Preferences {
		if enabled {
			prefs = append(prefs, key)
		}
	}
	sort.Strings(prefs)

	return nutriplan.PlanRequest{
		UserID:             profile.ID,
		DietaryPreferences: prefs,
		Allergies:          []string{},
		CalorieTarget:      calorieTarget,
		GoalText:           profile.GoalText,
	}
}
