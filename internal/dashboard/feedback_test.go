package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func loggedInDashboard(t *testing.T, gw *fakeGateway) *Dashboard {
	t.Helper()
	gw.addUser(aliceProfile())
	d := New(gw, &fakeIdentity{}, 2200)
	if _, err := d.Login(context.Background(), "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return d
}

func TestFeedbackUnsetRatingMakesNoCall(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	d := loggedInDashboard(t, gw)

	form, err := d.NewFeedbackForm(2)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if err := form.Submit(ctx, gw); !errors.Is(err, ErrRatingRequired) {
		t.Fatalf("Expected ErrRatingRequired, got %v", err)
	}
	if gw.feedbackCalls != 0 {
		t.Errorf("Submitting with rating 0 must never issue a network call, got %d calls", gw.feedbackCalls)
	}
}

func TestFeedbackFailureKeepsValues(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.feedbackErr = fmt.Errorf("backend unavailable")
	d := loggedInDashboard(t, gw)

	form, _ := d.NewFeedbackForm(2)
	form.Rating = 4
	form.Comment = "pretty good"

	if err := form.Submit(ctx, gw); err == nil {
		t.Fatal("Expected submission to fail")
	}
	if form.Rating != 4 || form.Comment != "pretty good" {
		t.Errorf("Failed submission must preserve entered values, got rating=%d comment=%q", form.Rating, form.Comment)
	}
}

func TestFeedbackSuccessResetsForm(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	d := loggedInDashboard(t, gw)

	form, _ := d.NewFeedbackForm(2)
	form.Rating = 5
	form.Comment = "great"

	if err := form.Submit(ctx, gw); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if form.Rating != 0 || form.Comment != "" {
		t.Errorf("Successful submission must reset the form, got rating=%d comment=%q", form.Rating, form.Comment)
	}
	if gw.lastFeedback.UserID != 7 || gw.lastFeedback.MealID != 2 || gw.lastFeedback.Rating != 5 {
		t.Errorf("Unexpected submitted feedback: %+v", gw.lastFeedback)
	}
}

func TestRateMealValidatesRange(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	d := loggedInDashboard(t, gw)

	for _, rating := range []int{0, 6, -1} {
		if err := d.RateMeal(ctx, 2, rating, ""); !errors.Is(err, ErrRatingRequired) {
			t.Errorf("rating %d: expected ErrRatingRequired, got %v", rating, err)
		}
	}
	if gw.feedbackCalls != 0 {
		t.Errorf("Out-of-range ratings must not reach the backend, got %d calls", gw.feedbackCalls)
	}

	if err := d.RateMeal(ctx, 2, 3, "ok"); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if gw.feedbackCalls != 1 {
		t.Errorf("Expected exactly one submission, got %d", gw.feedbackCalls)
	}
}
