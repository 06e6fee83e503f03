package nutriplan

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutriplan/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNotFound is returned when the backend reports no matching resource.
var ErrNotFound = errors.New("not found")

// APIError is a server-reported failure (non-2xx with a message body).
// Detail carries the backend's verbatim message when one was extractable.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// RequestRecorder receives one observation per backend request. The zero
// status means the request never produced a response.
type RequestRecorder interface {
	RecordRequest(operation string, status int, latency time.Duration)
}

// Client is the typed boundary to the NutriPlan backend. No retry, caching,
// or batching happens here; every call is a single HTTP round-trip.
type Client interface {
	RegisterUser(ctx context.Context, payload UserPayload) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, id int, payload UserPayload) (*User, error)
	GeneratePlan(ctx context.Context, req PlanRequest) (WeeklyPlan, error)
	DemoPlan(ctx context.Context) (*DemoPlan, error)
	ClassifyGoal(ctx context.Context, goalText string) (*GoalClassification, error)
	SubmitFeedback(ctx context.Context, fb Feedback) error
	LikedMeals(ctx context.Context, userID, minRating int) ([]LikedMeal, error)
}

// apiClient is the concrete implementation of the backend client.
type apiClient struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	recorder   RequestRecorder
}

// NewClient creates a new backend client. recorder may be nil.
func NewClient(cfg *config.Config, recorder RequestRecorder) Client {
	return &apiClient{
		httpClient: &http.Client{Timeout: cfg.APITimeout},
		baseURL:    cfg.APIBaseURL,
		serviceKey: cfg.APIServiceKey,
		recorder:   recorder,
	}
}

func (c *apiClient) RegisterUser(ctx context.Context, payload UserPayload) (*User, error) {
	var user User
	if err := c.do(ctx, "RegisterUser", http.MethodPost, "/users", nil, payload, &user); err != nil {
		return nil, fmt.Errorf("register user %q: %w", payload.Username, err)
	}
	return &user, nil
}

func (c *apiClient) UserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	path := "/users/by-username/" + url.PathEscape(username)
	if err := c.do(ctx, "UserByUsername", http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}
	return &user, nil
}

func (c *apiClient) UpdateUser(ctx context.Context, id int, payload UserPayload) (*User, error) {
	var user User
	path := fmt.Sprintf("/users/%d", id)
	if err := c.do(ctx, "UpdateUser", http.MethodPut, path, nil, payload, &user); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return &user, nil
}

func (c *apiClient) GeneratePlan(ctx context.Context, req PlanRequest) (WeeklyPlan, error) {
	var plan WeeklyPlan
	if err := c.do(ctx, "GeneratePlan", http.MethodPost, "/plan", nil, req, &plan); err != nil {
		return nil, fmt.Errorf("generate plan for user %d: %w", req.UserID, err)
	}
	return plan, nil
}

func (c *apiClient) DemoPlan(ctx context.Context) (*DemoPlan, error) {
	var demo DemoPlan
	if err := c.do(ctx, "DemoPlan", http.MethodPost, "/plan/demo", nil, nil, &demo); err != nil {
		return nil, fmt.Errorf("demo plan: %w", err)
	}
	return &demo, nil
}

func (c *apiClient) ClassifyGoal(ctx context.Context, goalText string) (*GoalClassification, error) {
	var result GoalClassification
	body := map[string]string{"text": goalText}
	if err := c.do(ctx, "ClassifyGoal", http.MethodPost, "/classify", nil, body, &result); err != nil {
		return nil, fmt.Errorf("classify goal: %w", err)
	}
	return &result, nil
}

func (c *apiClient) SubmitFeedback(ctx context.Context, fb Feedback) error {
	if err := c.do(ctx, "SubmitFeedback", http.MethodPost, "/feedback", nil, fb, nil); err != nil {
		return fmt.Errorf("submit feedback for meal %d: %w", fb.MealID, err)
	}
	return nil
}

func (c *apiClient) LikedMeals(ctx context.Context, userID, minRating int) ([]LikedMeal, error) {
	query := url.Values{"min_rating": []string{fmt.Sprintf("%d", minRating)}}
	path := fmt.Sprintf("/users/%d/liked-meals", userID)
	var meals []LikedMeal
	if err := c.do(ctx, "LikedMeals", http.MethodGet, path, query, nil, &meals); err != nil {
		return nil, fmt.Errorf("liked meals for user %d: %w", userID, err)
	}
	return meals, nil
}

// do executes a single JSON round-trip. 404 maps to ErrNotFound, other
// non-2xx statuses to *APIError, transport failures to wrapped errors.
func (c *apiClient) do(ctx context.Context, operation, method, path string, query url.Values, in, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.serviceKey != "" {
		token, err := c.createServiceToken()
		if err != nil {
			return fmt.Errorf("failed to create service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(operation, 0, start)
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	c.record(operation, resp.StatusCode, start)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: extractDetail(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *apiClient) record(operation string, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordRequest(operation, status, time.Since(start))
	}
}

// extractDetail pulls the backend's {"detail": "..."} message out of an
// error body. Anything unparseable yields an empty detail.
func extractDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 8192))
	if err != nil {
		return ""
	}
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// createServiceToken generates a short-lived JWT from the "id:secret"
// service key. The secret part is hex-encoded.
func (c *apiClient) createServiceToken() (string, error) {
	keyParts := strings.Split(c.serviceKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid service key format: expected id:secret")
	}

	id := keyParts[0]
	secret, err := hex.DecodeString(keyParts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/api/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
