package dashboard

import (
	"sync"

	"nutriplan/internal/nutriplan"
)

// OverlayManager tracks which overlays are visible. The preferences and
// favorites overlays are independent flags; opening one never closes the
// other. The meal detail overlay holds a value snapshot of the selected
// meal, so a plan regeneration while it is open does not change what it
// shows.
type OverlayManager struct {
	mu        sync.Mutex
	prefsOpen bool
	favsOpen  bool
	selected  *nutriplan.PlannedMeal
}

func (o *OverlayManager) OpenPreferences() {
	o.mu.Lock()
	o.prefsOpen = true
	o.mu.Unlock()
}

func (o *OverlayManager) ClosePreferences() {
	o.mu.Lock()
	o.prefsOpen = false
	o.mu.Unlock()
}

func (o *OverlayManager) PreferencesOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prefsOpen
}

func (o *OverlayManager) OpenFavorites() {
	o.mu.Lock()
	o.favsOpen = true
	o.mu.Unlock()
}

func (o *OverlayManager) CloseFavorites() {
	o.mu.Lock()
	o.favsOpen = false
	o.mu.Unlock()
}

func (o *OverlayManager) FavoritesOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.favsOpen
}

// SelectMeal opens the detail overlay on a copy of the given meal.
func (o *OverlayManager) SelectMeal(meal nutriplan.PlannedMeal) {
	snapshot := meal
	snapshot.Ingredients = append([]string(nil), meal.Ingredients...)

	o.mu.Lock()
	o.selected = &snapshot
	o.mu.Unlock()
}

// SelectedMeal returns the snapshot shown by the detail overlay, if open.
func (o *OverlayManager) SelectedMeal() (nutriplan.PlannedMeal, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return nutriplan.PlannedMeal{}, false
	}
	return *o.selected, true
}

// ClearSelection closes the detail overlay.
func (o *OverlayManager) ClearSelection() {
	o.mu.Lock()
	o.selected = nil
	o.mu.Unlock()
}

// Reset closes every overlay.
func (o *OverlayManager) Reset() {
	o.mu.Lock()
	o.prefsOpen = false
	o.favsOpen = false
	o.selected = nil
	o.mu.Unlock()
}
