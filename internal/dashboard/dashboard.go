// Package dashboard owns the client-side session state: the loaded
// profile, the displayed weekly plan, overlay visibility, and the
// favorites list. It talks to the backend only through the gateway
// client and to persisted identity only through the IdentityStore.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"nutriplan/internal/nutriplan"
)

// IdentityStore persists the active username across restarts.
type IdentityStore interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, username string) error
	Clear(ctx context.Context) error
}

var (
	// ErrNotLoggedIn means no identity is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionInvalid means the stored identity no longer matches a
	// backend profile. The identity has already been cleared when this
	// is returned; the caller should present the login view.
	ErrSessionInvalid = errors.New("stored session is no longer valid")
	// ErrNoProfile means an operation requiring a loaded profile ran
	// before one was loaded.
	ErrNoProfile = errors.New("no profile loaded")
)

// Dashboard is a single user session: one profile, one plan, one set of
// overlays. Instances are not shared across sessions.
type Dashboard struct {
	gw  nutriplan.Client
	ids IdentityStore

	calorieTarget int

	mu         sync.Mutex
	profile    *nutriplan.User
	plan       nutriplan.WeeklyPlan
	generating bool

	favorites    []nutriplan.LikedMeal
	favMinRating int
	favGen       uint64

	overlays OverlayManager
}

// New creates a Dashboard bound to a gateway client and identity store.
func New(gw nutriplan.Client, ids IdentityStore, calorieTarget int) *Dashboard {
	return &Dashboard{
		gw:            gw,
		ids:           ids,
		calorieTarget: calorieTarget,
		favMinRating:  4,
	}
}

// Resume re-establishes the session from persisted identity. Returns
// ErrNotLoggedIn when no identity is stored, ErrSessionInvalid when the
// stored username no longer resolves to a profile.
func (d *Dashboard) Resume(ctx context.Context) (*nutriplan.User, error) {
	username, ok, err := d.ids.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored identity: %w", err)
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return d.LoadProfile(ctx, username)
}

// LoadProfile resolves a username to a full profile. On a backend
// NotFound the stored identity is cleared and ErrSessionInvalid is
// returned; transient failures leave identity untouched.
func (d *Dashboard) LoadProfile(ctx context.Context, username string) (*nutriplan.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username must not be empty")
	}

	user, err := d.gw.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, nutriplan.ErrNotFound) {
			if clearErr := d.ids.Clear(ctx); clearErr != nil {
				log.Printf("Warning: failed to clear stale identity: %v", clearErr)
			}
			return nil, fmt.Errorf("user %q: %w", username, ErrSessionInvalid)
		}
		return nil, err
	}

	d.mu.Lock()
	d.profile = user
	d.mu.Unlock()
	return user, nil
}

// Login resolves the username and records it as the persisted identity.
func (d *Dashboard) Login(ctx context.Context, username string) (*nutriplan.User, error) {
	user, err := d.LoadProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := d.ids.Set(ctx, user.Username); err != nil {
		return nil, fmt.Errorf("failed to persist identity: %w", err)
	}
	return user, nil
}

// Register creates a new profile and logs it in. Presence and type checks
// happen here, before any network call.
func (d *Dashboard) Register(ctx context.Context, payload nutriplan.UserPayload) (*nutriplan.User, error) {
	if err := ValidateRegistration(payload); err != nil {
		return nil, err
	}
	if payload.Preferences == nil {
		payload.Preferences = map[string]bool{}
	}

	user, err := d.gw.RegisterUser(ctx, payload)
	if err != nil {
		return nil, err
	}
	if err := d.ids.Set(ctx, user.Username); err != nil {
		return nil, fmt.Errorf("failed to persist identity: %w", err)
	}

	d.mu.Lock()
	d.profile = user
	d.mu.Unlock()
	return user, nil
}

// ValidateRegistration rejects incomplete registrations client-side.
func ValidateRegistration(payload nutriplan.UserPayload) error {
	if strings.TrimSpace(payload.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if payload.Age < 13 {
		return fmt.Errorf("age must be at least 13")
	}
	if strings.TrimSpace(payload.GoalText) == "" {
		return fmt.Errorf("a goal is required")
	}
	return nil
}

// Logout clears the persisted identity and resets all session state.
func (d *Dashboard) Logout(ctx context.Context) error {
	if err := d.ids.Clear(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	d.profile = nil
	d.plan = nil
	d.generating = false
	d.favorites = nil
	d.favGen++
	d.mu.Unlock()
	d.overlays.Reset()
	return nil
}

// Profile returns the loaded profile, or nil before LoadProfile succeeds.
func (d *Dashboard) Profile() *nutriplan.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile
}

// UpdatePreferences replaces the profile's preference map server-side.
// The next plan generation picks up the new set.
func (d *Dashboard) UpdatePreferences(ctx context.Context, prefs map[string]bool) (*nutriplan.User, error) {
	d.mu.Lock()
	profile := d.profile
	d.mu.Unlock()
	if profile == nil {
		return nil, ErrNoProfile
	}

	payload := payloadFromProfile(profile)
	payload.Preferences = prefs

	user, err := d.gw.UpdateUser(ctx, profile.ID, payload)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.profile = user
	d.mu.Unlock()
	return user, nil
}

// Overlays exposes the session's overlay state container.
func (d *Dashboard) Overlays() *OverlayManager {
	return &d.overlays
}

func payloadFromProfile(profile *nutriplan.User) nutriplan.UserPayload {
	return nutriplan.UserPayload{
		Username:      profile.Username,
		Name:          profile.Name,
		Age:           profile.Age,
		WeightKg:      profile.WeightKg,
		HeightCm:      profile.HeightCm,
		Sex:           profile.Sex,
		ActivityLevel: profile.ActivityLevel,
		Preferences:   profile.Preferences,
		GoalText:      profile.GoalText,
	}
}
