package dashboard

import (
	"context"
	"log"

	"nutriplan/internal/nutriplan"
)

// RefreshFavorites re-issues the favorites query for the given minimum
// rating. Only the result of the most recently issued request may be
// committed: a slower, earlier response arriving after a newer request
// was issued is discarded on arrival. When the request fails, the
// previously shown list is preserved.
func (d *Dashboard) RefreshFavorites(ctx context.Context, minRating int) error {
	d.mu.Lock()
	if d.profile == nil {
		d.mu.Unlock()
		return ErrNoProfile
	}
	d.favGen++
	gen := d.favGen
	userID := d.profile.ID
	d.mu.Unlock()

	meals, err := d.gw.LikedMeals(ctx, userID, minRating)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.favGen {
		// A newer request was issued while this one was in flight.
		return nil
	}
	if err != nil {
		log.Printf("Favorites refresh failed (min rating %d): %v", minRating, err)
		return err
	}
	d.favorites = meals
	d.favMinRating = minRating
	return nil
}

// Favorites returns the last committed favorites list and the rating
// threshold it was fetched with. An empty list is a valid result.
func (d *Dashboard) Favorites() ([]nutriplan.LikedMeal, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.favorites, d.favMinRating
}
