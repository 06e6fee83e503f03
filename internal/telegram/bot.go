package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutriplan/internal/config"
	"nutriplan/internal/dashboard"
	"nutriplan/internal/metrics"
	"nutriplan/internal/nutriplan"
)

// Bot wraps the Telegram API and the dashboard session. It is a personal
// frontend: access is limited to the configured allow list, and all
// allowed users act on the same NutriPlan session.
type Bot struct {
	api          *tgbotapi.BotAPI
	gw           nutriplan.Client
	dash         *dashboard.Dashboard
	sessions     *SessionRepository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	gw nutriplan.Client,
	dash *dashboard.Dashboard,
	sessions *SessionRepository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		gw:           gw,
		dash:         dash,
		sessions:     sessions,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if !b.isAllowed(update.CallbackQuery.From.ID) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		command, args := fields[0], strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

		switch command {
		case "/start":
			b.handleStart(ctx, chatID)
		case "/login":
			b.handleLogin(ctx, chatID, args)
		case "/register":
			b.startOnboarding(ctx, userID, chatID, args)
		case "/cancel":
			b.handleCancel(ctx, userID, chatID)
		case "/plan":
			b.handlePlanRequest(ctx, chatID)
		case "/meal":
			b.handleMealDetail(chatID, args)
		case "/favorites":
			b.handleFavorites(ctx, chatID)
		case "/preferences":
			b.handlePreferences(chatID)
		case "/goal":
			b.handleGoal(ctx, chatID)
		case "/demo":
			b.handleDemo(ctx, chatID)
		case "/logout":
			b.handleLogout(ctx, chatID)
		case "/metrics":
			b.handleMetricsRequest(msg)
		default:
			b.send(chatID, helpText)
		}
		return
	}

	// Free text continues an in-progress onboarding, if any.
	session, err := b.sessions.GetActive(ctx, userID, time.Now())
	if err != nil {
		log.Printf("Error loading onboarding session: %v", err)
		return
	}
	if session != nil {
		b.handleOnboardingText(ctx, session, chatID, text)
		return
	}
	b.send(chatID, helpText)
}

const helpText = `🥗 *NutriPlan*
/start - resume your session
/login <username> - log in
/register <username> - create a profile
/plan - generate your weekly meal plan
/meal <id> - ingredients and directions
/favorites - meals you rated highly
/preferences - dietary preference toggles
/goal - how the backend reads your goal
/demo - feedback loop demo
/logout - forget this session`

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	user, err := b.dash.Resume(ctx)
	switch {
	case err == nil:
		b.send(chatID, formatProfile(user)+"\nSend /plan to generate your weekly plan.")
	case errors.Is(err, dashboard.ErrNotLoggedIn):
		b.send(chatID, "👋 Welcome! /login <username> if you have a profile, or /register <username> to create one.")
	case errors.Is(err, dashboard.ErrSessionInvalid):
		b.send(chatID, "Your saved session no longer matches a profile. /login or /register to continue.")
	default:
		log.Printf("Error resuming session: %v", err)
		b.send(chatID, "❌ Could not reach the NutriPlan backend. Please try again.")
	}
}

func (b *Bot) handleLogin(ctx context.Context, chatID int64, username string) {
	if username == "" {
		b.send(chatID, "Usage: /login <username>")
		return
	}
	user, err := b.dash.Login(ctx, username)
	if err != nil {
		if errors.Is(err, dashboard.ErrSessionInvalid) {
			b.send(chatID, fmt.Sprintf("No profile named *%s*. /register %s to create one.", username, username))
			return
		}
		log.Printf("Error logging in %q: %v", username, err)
		b.send(chatID, "❌ Login failed. Please try again.")
		return
	}
	b.send(chatID, formatProfile(user)+"\nSend /plan to generate your weekly plan.")
}

func (b *Bot) handleCancel(ctx context.Context, userID string, chatID int64) {
	session, err := b.sessions.GetActive(ctx, userID, time.Now())
	if err != nil || session == nil {
		b.send(chatID, "Nothing to cancel.")
		return
	}
	_ = b.sessions.Delete(ctx, session.ID)
	b.send(chatID, "Registration cancelled.")
}

func (b *Bot) handlePlanRequest(ctx context.Context, chatID int64) {
	if b.dash.Profile() == nil {
		if _, err := b.dash.Resume(ctx); err != nil {
			b.send(chatID, "Log in first: /login <username>")
			return
		}
	}

	statusText := "🧑‍🍳 *Thinking...* \n(Generating your weekly plan)"
	replyMsg := tgbotapi.NewMessage(chatID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	b.generateAndEdit(ctx, chatID, sentMsg.MessageID)
}

func (b *Bot) generateAndEdit(ctx context.Context, chatID int64, messageID int) {
	// Classification is informative only; a failure never blocks the plan.
	if profile := b.dash.Profile(); profile != nil {
		if result, err := b.gw.ClassifyGoal(ctx, profile.GoalText); err != nil {
			log.Printf("Goal classification failed: %v", err)
		} else {
			b.send(chatID, formatClassification(result))
		}
	}

	plan, err := b.dash.Generate(ctx)
	if err != nil {
		if errors.Is(err, dashboard.ErrGenerationInFlight) {
			edit := tgbotapi.NewEditMessageText(chatID, messageID, "⏳ A plan is already being generated.")
			b.api.Send(edit)
			return
		}
		log.Printf("Error generating plan: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText := fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr)
		if _, state := b.dash.Plan(); state == dashboard.PlanStateReady {
			finalText += "\n_Your previous plan is still available._"
		}
		edit := tgbotapi.NewEditMessageText(chatID, messageID, finalText)
		edit.ParseMode = "Markdown"
		b.api.Send(edit)
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 New Plan", "regen"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, formatPlanMarkdown(plan))
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &keyboard
	b.api.Send(edit)
}

func (b *Bot) handleMealDetail(chatID int64, args string) {
	mealID, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(args), "#"))
	if err != nil {
		b.send(chatID, "Usage: /meal <id> (ids are shown in the plan)")
		return
	}

	plan, state := b.dash.Plan()
	if state == dashboard.PlanStateNoPlan {
		b.send(chatID, "Generate a plan first with /plan.")
		return
	}

	meal, ok := findMeal(plan, mealID)
	if !ok {
		b.send(chatID, fmt.Sprintf("No meal `#%d` in the current plan.", mealID))
		return
	}

	b.dash.Overlays().SelectMeal(meal)
	selected, _ := b.dash.Overlays().SelectedMeal()

	msg := tgbotapi.NewMessage(chatID, formatMealDetail(selected))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = ratingKeyboard(selected.ID)
	b.api.Send(msg)
}

func findMeal(plan nutriplan.WeeklyPlan, mealID int) (nutriplan.PlannedMeal, bool) {
	for _, day := range sortedDays(plan) {
		for _, meal := range []*nutriplan.PlannedMeal{plan[day].Breakfast, plan[day].Lunch, plan[day].Dinner} {
			if meal != nil && meal.ID == mealID {
				return *meal, true
			}
		}
	}
	return nutriplan.PlannedMeal{}, false
}

func ratingKeyboard(mealID int) tgbotapi.InlineKeyboardMarkup {
	stars := make([]tgbotapi.InlineKeyboardButton, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		stars = append(stars, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d★", rating), fmt.Sprintf("rate|%d|%d", mealID, rating)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		stars,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Close", "meal_close"),
		),
	)
}

func (b *Bot) handleFavorites(ctx context.Context, chatID int64) {
	if b.dash.Profile() == nil {
		b.send(chatID, "Log in first: /login <username>")
		return
	}

	b.dash.Overlays().OpenFavorites()
	_, minRating := b.dash.Favorites()
	if err := b.dash.RefreshFavorites(ctx, minRating); err != nil {
		b.send(chatID, "❌ Could not refresh favorites; showing the last known list.")
	}

	meals, minRating := b.dash.Favorites()
	msg := tgbotapi.NewMessage(chatID, formatFavorites(meals, minRating))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = favoritesKeyboard(minRating)
	b.api.Send(msg)
}

func favoritesKeyboard(current int) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, rating := range []int{5, 4, 3} {
		label := fmt.Sprintf("%d★+", rating)
		if rating == current {
			label = "• " + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("fav|%d", rating)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		buttons,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Close", "favs_close"),
		),
	)
}

func (b *Bot) handlePreferences(chatID int64) {
	profile := b.dash.Profile()
	if profile == nil {
		b.send(chatID, "Log in first: /login <username>")
		return
	}

	b.dash.Overlays().OpenPreferences()
	msg := tgbotapi.NewMessage(chatID, formatPreferences(profile))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = preferencesKeyboard(profile.Preferences, "pref", "prefs_close")
	b.api.Send(msg)
}

func (b *Bot) handleGoal(ctx context.Context, chatID int64) {
	profile := b.dash.Profile()
	if profile == nil {
		b.send(chatID, "Log in first: /login <username>")
		return
	}
	result, err := b.gw.ClassifyGoal(ctx, profile.GoalText)
	if err != nil {
		log.Printf("Goal classification failed: %v", err)
		b.send(chatID, "❌ Could not classify your goal right now.")
		return
	}
	b.send(chatID, formatClassification(result))
}

func (b *Bot) handleDemo(ctx context.Context, chatID int64) {
	statusText := "🚀 *Running the feedback loop demo...*"
	replyMsg := tgbotapi.NewMessage(chatID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	demo, err := b.gw.DemoPlan(ctx)
	if err != nil {
		log.Printf("Error running demo: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID,
			fmt.Sprintf("❌ *Error running demo:*\n```\n%v\n```", safeErr))
		edit.ParseMode = "Markdown"
		b.api.Send(edit)
		return
	}

	before, after := formatDemo(demo)
	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, before)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)

	afterMsg := tgbotapi.NewMessage(chatID, after)
	afterMsg.ParseMode = "Markdown"
	b.api.Send(afterMsg)
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) {
	if err := b.dash.Logout(ctx); err != nil {
		log.Printf("Error logging out: %v", err)
		b.send(chatID, "❌ Logout failed. Please try again.")
		return
	}
	b.send(chatID, "👋 Logged out. /login or /register when you're back.")
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	userID := strconv.FormatInt(query.From.ID, 10)
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	parts := strings.Split(query.Data, "|")
	action := parts[0]

	// Answer first to remove the spinner.
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	switch action {
	case "regen":
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "🧑‍🍳 *Thinking...*")
		edit.ParseMode = "Markdown"
		b.api.Send(edit)
		b.generateAndEdit(ctx, chatID, messageID)

	case "rate":
		if len(parts) != 3 {
			return
		}
		mealID, _ := strconv.Atoi(parts[1])
		rating, _ := strconv.Atoi(parts[2])
		if err := b.dash.RateMeal(ctx, mealID, rating, ""); err != nil {
			log.Printf("Error submitting feedback: %v", err)
			b.api.Request(tgbotapi.NewCallbackWithAlert(query.ID, "Could not submit your rating. Please try again."))
			return
		}
		b.api.Request(tgbotapi.NewCallback(query.ID, fmt.Sprintf("Rated %d★, thanks!", rating)))

	case "meal_close":
		b.dash.Overlays().ClearSelection()
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "Meal detail closed.")
		b.api.Send(edit)

	case "fav":
		if len(parts) != 2 {
			return
		}
		minRating, _ := strconv.Atoi(parts[1])
		if err := b.dash.RefreshFavorites(ctx, minRating); err != nil {
			log.Printf("Error refreshing favorites: %v", err)
		}
		meals, committed := b.dash.Favorites()
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			formatFavorites(meals, committed), favoritesKeyboard(committed))
		edit.ParseMode = "Markdown"
		b.api.Send(edit)

	case "favs_close":
		b.dash.Overlays().CloseFavorites()
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "Favorites closed.")
		b.api.Send(edit)

	case "pref":
		if len(parts) != 2 {
			return
		}
		profile := b.dash.Profile()
		if profile == nil {
			return
		}
		prefs := make(map[string]bool, len(profile.Preferences))
		for key, enabled := range profile.Preferences {
			prefs[key] = enabled
		}
		prefs[parts[1]] = !prefs[parts[1]]

		updated, err := b.dash.UpdatePreferences(ctx, prefs)
		if err != nil {
			log.Printf("Error updating preferences: %v", err)
			b.api.Request(tgbotapi.NewCallbackWithAlert(query.ID, "Could not save that preference."))
			return
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			formatPreferences(updated), preferencesKeyboard(updated.Preferences, "pref", "prefs_close"))
		edit.ParseMode = "Markdown"
		b.api.Send(edit)

	case "prefs_close":
		b.dash.Overlays().ClosePreferences()
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "Preferences closed.")
		b.api.Send(edit)

	case "sex", "act", "obpref", "obdone":
		session, err := b.sessions.GetActive(ctx, userID, time.Now())
		if err != nil || session == nil {
			return
		}
		value := ""
		if len(parts) > 1 {
			value = parts[1]
		}
		b.handleOnboardingCallback(ctx, session, chatID, messageID, action, value)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.send(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Backend Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d requests, %d failed, avg %dms\n",
			d.Date, d.TotalRequests, d.TotalFailures, d.AvgLatencyMS))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.send(chatID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}
