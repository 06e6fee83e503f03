package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"nutriplan/internal/nutriplan"
)

// fakeGateway implements nutriplan.Client in-memory.
type fakeGateway struct {
	mu sync.Mutex

	users  map[string]*nutriplan.User
	nextID int

	plan      nutriplan.WeeklyPlan
	planErr   error
	planGate  chan struct{} // when non-nil, GeneratePlan blocks until closed
	planEnter chan struct{} // when non-nil, receives a signal on entry
	planReqs  []nutriplan.PlanRequest

	liked     func(userID, minRating int) ([]nutriplan.LikedMeal, error)
	likedGate map[int]chan struct{}
	likedIn   chan int

	feedbackErr   error
	feedbackCalls int
	lastFeedback  nutriplan.Feedback
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{users: map[string]*nutriplan.User{}, nextID: 1}
}

func (g *fakeGateway) addUser(user nutriplan.User) *nutriplan.User {
	g.users[user.Username] = &user
	return &user
}

func (g *fakeGateway) RegisterUser(_ context.Context, payload nutriplan.UserPayload) (*nutriplan.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.users[payload.Username]; exists {
		return nil, &nutriplan.APIError{Status: 400, Detail: "Username already registered"}
	}
	prefs := payload.Preferences
	if prefs == nil {
		prefs = map[string]bool{}
	}
	user := &nutriplan.User{
		ID:          g.nextID,
		Username:    payload.Username,
		Name:        payload.Name,
		Age:         payload.Age,
		Preferences: prefs,
		GoalText:    payload.GoalText,
	}
	g.nextID++
	g.users[payload.Username] = user
	return user, nil
}

func (g *fakeGateway) UserByUsername(_ context.Context, username string) (*nutriplan.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[username]
	if !ok {
		return nil, fmt.Errorf("lookup user %q: %w", username, nutriplan.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (g *fakeGateway) UpdateUser(_ context.Context, id int, payload nutriplan.UserPayload) (*nutriplan.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, user := range g.users {
		if user.ID == id {
			user.Preferences = payload.Preferences
			user.GoalText = payload.GoalText
			copied := *user
			return &copied, nil
		}
	}
	return nil, nutriplan.ErrNotFound
}

func (g *fakeGateway) GeneratePlan(_ context.Context, req nutriplan.PlanRequest) (nutriplan.WeeklyPlan, error) {
	g.mu.Lock()
	g.planReqs = append(g.planReqs, req)
	enter, gate := g.planEnter, g.planGate
	plan, err := g.plan, g.planErr
	g.mu.Unlock()

	if enter != nil {
		enter <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return plan, err
}

func (g *fakeGateway) DemoPlan(context.Context) (*nutriplan.DemoPlan, error) {
	return &nutriplan.DemoPlan{}, nil
}

func (g *fakeGateway) ClassifyGoal(context.Context, string) (*nutriplan.GoalClassification, error) {
	return &nutriplan.GoalClassification{Label: "general", Confidence: 0.5}, nil
}

func (g *fakeGateway) SubmitFeedback(_ context.Context, fb nutriplan.Feedback) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.feedbackCalls++
	g.lastFeedback = fb
	return g.feedbackErr
}

func (g *fakeGateway) LikedMeals(_ context.Context, userID, minRating int) ([]nutriplan.LikedMeal, error) {
	g.mu.Lock()
	likedIn := g.likedIn
	var gate chan struct{}
	if g.likedGate != nil {
		gate = g.likedGate[minRating]
	}
	liked := g.liked
	g.mu.Unlock()

	if likedIn != nil {
		likedIn <- minRating
	}
	if gate != nil {
		<-gate
	}
	if liked != nil {
		return liked(userID, minRating)
	}
	return []nutriplan.LikedMeal{}, nil
}

// fakeIdentity is an in-memory IdentityStore.
type fakeIdentity struct {
	mu       sync.Mutex
	username string
	stored   bool
}

func (f *fakeIdentity) Get(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.username, f.stored, nil
}

func (f *fakeIdentity) Set(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.username = username
	f.stored = true
	return nil
}

func (f *fakeIdentity) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.username = ""
	f.stored = false
	return nil
}

func aliceProfile() nutriplan.User {
	return nutriplan.User{
		ID:       7,
		Username: "alice",
		Name:     "Alice",
		Age:      30,
		Preferences: map[string]bool{
			"vegetarian":  true,
			"vegan":       false,
			"gluten_free": true,
		},
		GoalText: "lose weight",
	}
}

func samplePlan(title string) nutriplan.WeeklyPlan {
	return nutriplan.WeeklyPlan{
		"Monday": {
			Breakfast: &nutriplan.PlannedMeal{ID: 1, Title: title, Calories: 350},
		},
	}
}

func TestResume(t *testing.T) {
	ctx := context.Background()

	t.Run("NotLoggedIn", func(t *testing.T) {
		d := New(newFakeGateway(), &fakeIdentity{}, 2200)
		if _, err := d.Resume(ctx); !errors.Is(err, ErrNotLoggedIn) {
			t.Fatalf("Expected ErrNotLoggedIn, got %v", err)
		}
	})

	t.Run("ValidIdentity", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addUser(aliceProfile())
		ids := &fakeIdentity{username: "alice", stored: true}
		d := New(gw, ids, 2200)

		user, err := d.Resume(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if user.ID != 7 {
			t.Errorf("Unexpected profile: %+v", user)
		}
		if _, ok, _ := ids.Get(ctx); !ok {
			t.Error("Identity must not be cleared on a successful load")
		}
	})

	t.Run("StaleIdentity", func(t *testing.T) {
		ids := &fakeIdentity{username: "ghost", stored: true}
		d := New(newFakeGateway(), ids, 2200)

		_, err := d.Resume(ctx)
		if !errors.Is(err, ErrSessionInvalid) {
			t.Fatalf("Expected ErrSessionInvalid, got %v", err)
		}
		if _, ok, _ := ids.Get(ctx); ok {
			t.Error("Stale identity must be cleared")
		}
	})
}

func TestLoadProfileTransportFailure(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addUser(aliceProfile())
	ids := &fakeIdentity{username: "alice", stored: true}
	d := New(&failingUserGateway{fakeGateway: gw}, ids, 2200)

	_, err := d.LoadProfile(ctx, "alice")
	if err == nil || errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("Expected a transport error, got %v", err)
	}
	if _, ok, _ := ids.Get(ctx); !ok {
		t.Error("Transient failures must not destroy a valid session")
	}
}

// failingUserGateway fails user lookups with a non-NotFound error.
type failingUserGateway struct {
	*fakeGateway
}

func (g *failingUserGateway) UserByUsername(context.Context, string) (*nutriplan.User, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresProfile", func(t *testing.T) {
		d := New(newFakeGateway(), &fakeIdentity{}, 2200)
		if _, err := d.Generate(ctx); !errors.Is(err, ErrNoProfile) {
			t.Fatalf("Expected ErrNoProfile, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addUser(aliceProfile())
		gw.plan = samplePlan("Oatmeal")
		d := New(gw, &fakeIdentity{}, 2200)
		if _, err := d.Login(ctx, "alice"); err != nil {
			t.Fatalf("login: %v", err)
		}

		if _, state := d.Plan(); state != PlanStateNoPlan {
			t.Fatalf("Expected no plan before generation, got %v", state)
		}

		plan, err := d.Generate(ctx)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if plan["Monday"].Breakfast.Title != "Oatmeal" {
			t.Errorf("Unexpected plan: %+v", plan)
		}
		if _, state := d.Plan(); state != PlanStateReady {
			t.Errorf("Expected PlanStateReady, got %v", state)
		}

		req := gw.planReqs[0]
		if req.UserID != 7 || req.CalorieTarget != 2200 || req.GoalText != "lose weight" {
			t.Errorf("Unexpected plan request: %+v", req)
		}
	})

	t.Run("FailedRegenerationKeepsPlan", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addUser(aliceProfile())
		gw.plan = samplePlan("Oatmeal")
		d := New(gw, &fakeIdentity{}, 2200)
		if _, err := d.Login(ctx, "alice"); err != nil {
			t.Fatalf("login: %v", err)
		}
		if _, err := d.Generate(ctx); err != nil {
			t.Fatalf("first generate: %v", err)
		}

		gw.mu.Lock()
		gw.planErr = fmt.Errorf("backend unavailable")
		gw.mu.Unlock()

		if _, err := d.Generate(ctx); err == nil {
			t.Fatal("Expected regeneration to fail")
		}

		plan, state := d.Plan()
		if state != PlanStateReady {
			t.Errorf("Expected PlanStateReady after failed regeneration, got %v", state)
		}
		if plan["Monday"].Breakfast.Title != "Oatmeal" {
			t.Errorf("Previously displayed plan must stay visible, got %+v", plan)
		}
	})

	t.Run("RejectsConcurrentGeneration", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addUser(aliceProfile())
		gw.plan = samplePlan("Oatmeal")
		gw.planGate = make(chan struct{})
		gw.planEnter = make(chan struct{}, 1)
		d := New(gw, &fakeIdentity{}, 2200)
		if _, err := d.Login(ctx, "alice"); err != nil {
			t.Fatalf("login: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			_, err := d.Generate(ctx)
			done <- err
		}()
		<-gw.planEnter

		if _, state := d.Plan(); state != PlanStateGenerating {
			t.Errorf("Expected PlanStateGenerating, got %v", state)
		}
		if _, err := d.Generate(ctx); !errors.Is(err, ErrGenerationInFlight) {
			t.Fatalf("Expected ErrGenerationInFlight, got %v", err)
		}

		close(gw.planGate)
		if err := <-done; err != nil {
			t.Fatalf("first generate: %v", err)
		}
	})

	t.Run("RecomputesPreferences", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addUser(aliceProfile())
		gw.plan = samplePlan("Oatmeal")
		d := New(gw, &fakeIdentity{}, 2200)
		if _, err := d.Login(ctx, "alice"); err != nil {
			t.Fatalf("login: %v", err)
		}

		if _, err := d.Generate(ctx); err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, err := d.UpdatePreferences(ctx, map[string]bool{"vegan": true}); err != nil {
			t.Fatalf("update preferences: %v", err)
		}
		if _, err := d.Generate(ctx); err != nil {
			t.Fatalf("regenerate: %v", err)
		}

		first, second := gw.planReqs[0], gw.planReqs[1]
		if len(first.DietaryPreferences) != 2 || first.DietaryPreferences[0] != "gluten_free" || first.DietaryPreferences[1] != "vegetarian" {
			t.Errorf("Unexpected first preferences: %v", first.DietaryPreferences)
		}
		if len(second.DietaryPreferences) != 1 || second.DietaryPreferences[0] != "vegan" {
			t.Errorf("Toggled preferences must be reflected on regenerate, got %v", second.DietaryPreferences)
		}
	})
}

func TestBuildPlanRequestDeterministic(t *testing.T) {
	profile := aliceProfile()
	first := BuildPlanRequest(&profile, 2200)
	second := BuildPlanRequest(&profile, 2200)

	if len(first.DietaryPreferences) != 2 {
		t.Fatalf("Expected exactly the true-valued keys, got %v", first.DietaryPreferences)
	}
	for i := range first.DietaryPreferences {
		if first.DietaryPreferences[i] != second.DietaryPreferences[i] {
			t.Fatalf("Expected order-stable preferences: %v vs %v", first.DietaryPreferences, second.DietaryPreferences)
		}
	}
	if first.Allergies == nil || len(first.Allergies) != 0 {
		t.Errorf("Expected empty allergies list, got %v", first.Allergies)
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	ids := &fakeIdentity{}
	d := New(gw, ids, 2200)

	user, err := d.Register(ctx, nutriplan.UserPayload{
		Username: "alice",
		Name:     "Alice",
		Age:      30,
		GoalText: "lose weight",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Error("Expected an assigned profile ID")
	}
	if user.Preferences == nil || len(user.Preferences) != 0 {
		t.Errorf("Expected preferences defaulting to an empty map, got %v", user.Preferences)
	}
	if username, ok, _ := ids.Get(ctx); !ok || username != "alice" {
		t.Errorf("Expected session set to 'alice', got %q (stored=%v)", username, ok)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	d := New(gw, &fakeIdentity{}, 2200)

	cases := []nutriplan.UserPayload{
		{Name: "Alice", Age: 30, GoalText: "x"},            // missing username
		{Username: "alice", Age: 30, GoalText: "x"},        // missing name
		{Username: "alice", Name: "Alice", Age: 12, GoalText: "x"}, // under age
		{Username: "alice", Name: "Alice", Age: 30},        // missing goal
	}
	for i, payload := range cases {
		if _, err := d.Register(ctx, payload); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
	if len(gw.users) != 0 {
		t.Error("Validation failures must not reach the backend")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addUser(aliceProfile())
	gw.plan = samplePlan("Oatmeal")
	ids := &fakeIdentity{}
	d := New(gw, ids, 2200)

	if _, err := d.Login(ctx, "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := d.Generate(ctx); err != nil {
		t.Fatalf("generate: %v", err)
	}
	d.Overlays().OpenFavorites()

	if err := d.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if d.Profile() != nil {
		t.Error("Expected profile cleared")
	}
	if _, state := d.Plan(); state != PlanStateNoPlan {
		t.Errorf("Expected PlanStateNoPlan, got %v", state)
	}
	if _, ok, _ := ids.Get(ctx); ok {
		t.Error("Expected identity cleared")
	}
	if d.Overlays().FavoritesOpen() {
		t.Error("Expected overlays reset")
	}
}
