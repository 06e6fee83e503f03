package dashboard

import (
	"context"
	"errors"

	"nutriplan/internal/nutriplan"
)

// ErrRatingRequired is returned when feedback is submitted with no rating
// selected. No network call is made in that case.
var ErrRatingRequired = errors.New("a rating between 1 and 5 is required")

// FeedbackForm holds in-progress rating input for one meal. A failed
// submission keeps the entered rating and comment so the user can retry;
// a successful one resets the form.
type FeedbackForm struct {
	UserID  int
	MealID  int
	Rating  int // 0 means unset
	Comment string
}

// NewFeedbackForm opens a feedback form for a meal of the current plan.
func (d *Dashboard) NewFeedbackForm(mealID int) (*FeedbackForm, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.profile == nil {
		return nil, ErrNoProfile
	}
	return &FeedbackForm{UserID: d.profile.ID, MealID: mealID}, nil
}

// Submit sends the feedback when a rating was chosen. The rating range is
// checked client-side before any request is issued.
func (f *FeedbackForm) Submit(ctx context.Context, gw nutriplan.Client) error {
	if f.Rating < 1 || f.Rating > 5 {
		return ErrRatingRequired
	}
	if err := gw.SubmitFeedback(ctx, nutriplan.Feedback{
		UserID:  f.UserID,
		MealID:  f.MealID,
		Rating:  f.Rating,
		Comment: f.Comment,
	}); err != nil {
		return err
	}
	f.Rating = 0
	f.Comment = ""
	return nil
}

// RateMeal is the one-shot path used when no form state is needed.
func (d *Dashboard) RateMeal(ctx context.Context, mealID, rating int, comment string) error {
	form, err := d.NewFeedbackForm(mealID)
	if err != nil {
		return err
	}
	form.Rating = rating
	form.Comment = comment
	return form.Submit(ctx, d.gw)
}
