package telegram

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutriplan/internal/nutriplan"
)

// onboardingTTL bounds how long a half-finished registration stays
// resumable.
const onboardingTTL = 30 * time.Minute

var activityLevels = []string{"sedentary", "lightly_active", "moderately_active", "very_active"}

var defaultPreferenceKeys = []string{"vegetarian", "vegan", "gluten_free", "dairy_free", "no_red_meat"}

// parseNameAge splits "Alice 30" into name and age. The last field must
// be the age.
func parseNameAge(text string) (string, int, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("please send your name and age, e.g. `Alice 30`")
	}
	age, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return "", 0, fmt.Errorf("the last part should be your age as a number, e.g. `Alice 30`")
	}
	if age < 13 {
		return "", 0, fmt.Errorf("you need to be at least 13 to use NutriPlan")
	}
	name := strings.Join(fields[:len(fields)-1], " ")
	return name, age, nil
}

// parseMetrics splits "70 175" into weight (kg) and height (cm).
func parseMetrics(text string) (float64, float64, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("please send weight and height, e.g. `70 175`, or `skip`")
	}
	weight, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || weight <= 0 {
		return 0, 0, fmt.Errorf("weight should be a number in kg, e.g. `70 175`")
	}
	height, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("height should be a number in cm, e.g. `70 175`")
	}
	return weight, height, nil
}

func (b *Bot) startOnboarding(ctx context.Context, userID string, chatID int64, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		b.send(chatID, "Usage: /register <username>")
		return
	}

	draft := Draft{Payload: nutriplan.UserPayload{Username: username, Preferences: map[string]bool{}}}
	if _, err := b.sessions.Create(ctx, userID, StateName, draft, onboardingTTL); err != nil {
		log.Printf("Error creating onboarding session: %v", err)
		b.send(chatID, "❌ Could not start registration. Please try again.")
		return
	}
	b.send(chatID, fmt.Sprintf("Let's set up *%s*. What's your name and age? e.g. `Alice 30`", username))
}

// handleOnboardingText advances the text-driven onboarding steps.
func (b *Bot) handleOnboardingText(ctx context.Context, session *Session, chatID int64, text string) {
	draft, err := session.GetDraft()
	if err != nil {
		log.Printf("Error reading onboarding draft: %v", err)
		b.send(chatID, "❌ Registration state is corrupted. Send /register to start over.")
		_ = b.sessions.Delete(ctx, session.ID)
		return
	}

	switch session.State {
	case StateName:
		name, age, err := parseNameAge(text)
		if err != nil {
			b.send(chatID, err.Error())
			return
		}
		draft.Payload.Name = name
		draft.Payload.Age = age
		b.advance(ctx, session, StateMetrics, draft, chatID,
			"Got it. Now your weight (kg) and height (cm)? e.g. `70 175`, or `skip`")

	case StateMetrics:
		if !strings.EqualFold(strings.TrimSpace(text), "skip") {
			weight, height, err := parseMetrics(text)
			if err != nil {
				b.send(chatID, err.Error())
				return
			}
			draft.Payload.WeightKg = &weight
			draft.Payload.HeightCm = &height
		}
		if err := b.sessions.Update(ctx, session.ID, StateSex, draft); err != nil {
			log.Printf("Error updating onboarding session: %v", err)
			return
		}
		msg := tgbotapi.NewMessage(chatID, "How do you describe your sex?")
		msg.ReplyMarkup = sexKeyboard()
		b.api.Send(msg)

	case StateGoal:
		draft.Payload.GoalText = strings.TrimSpace(text)
		b.finishOnboarding(ctx, session, chatID, draft)

	default:
		// Waiting on a keyboard answer.
		b.send(chatID, "Please use the buttons above to continue, or /cancel to start over.")
	}
}

func (b *Bot) advance(ctx context.Context, session *Session, state string, draft Draft, chatID int64, prompt string) {
	if err := b.sessions.Update(ctx, session.ID, state, draft); err != nil {
		log.Printf("Error updating onboarding session: %v", err)
		b.send(chatID, "❌ Could not save your answer. Please try again.")
		return
	}
	b.send(chatID, prompt)
}

// handleOnboardingCallback advances the keyboard-driven steps.
func (b *Bot) handleOnboardingCallback(ctx context.Context, session *Session, chatID int64, messageID int, action, value string) {
	draft, err := session.GetDraft()
	if err != nil {
		log.Printf("Error reading onboarding draft: %v", err)
		return
	}

	switch {
	case action == "sex" && session.State == StateSex:
		draft.Payload.Sex = value
		if err := b.sessions.Update(ctx, session.ID, StateActivity, draft); err != nil {
			log.Printf("Error updating onboarding session: %v", err)
			return
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"How active are you?", activityKeyboard())
		b.api.Send(edit)

	case action == "act" && session.State == StateActivity:
		draft.Payload.ActivityLevel = value
		if err := b.sessions.Update(ctx, session.ID, StatePrefs, draft); err != nil {
			log.Printf("Error updating onboarding session: %v", err)
			return
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"Any dietary preferences? Toggle what applies, then press Done.",
			preferencesKeyboard(draft.Payload.Preferences, "obpref", "obdone"))
		b.api.Send(edit)

	case action == "obpref" && session.State == StatePrefs:
		if draft.Payload.Preferences == nil {
			draft.Payload.Preferences = map[string]bool{}
		}
		draft.Payload.Preferences[value] = !draft.Payload.Preferences[value]
		if err := b.sessions.Update(ctx, session.ID, StatePrefs, draft); err != nil {
			log.Printf("Error updating onboarding session: %v", err)
			return
		}
		markup := preferencesKeyboard(draft.Payload.Preferences, "obpref", "obdone")
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
		b.api.Send(edit)

	case action == "obdone" && session.State == StatePrefs:
		if err := b.sessions.Update(ctx, session.ID, StateGoal, draft); err != nil {
			log.Printf("Error updating onboarding session: %v", err)
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, messageID,
			"Last step: what's your primary goal? e.g. \"I want to build lean muscle\"")
		b.api.Send(edit)
	}
}

func (b *Bot) finishOnboarding(ctx context.Context, session *Session, chatID int64, draft Draft) {
	user, err := b.dash.Register(ctx, draft.Payload)
	if err != nil {
		log.Printf("Error registering user %q: %v", draft.Payload.Username, err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.send(chatID, fmt.Sprintf("❌ *Registration failed:*\n```\n%s\n```\nSend your goal again to retry, or /cancel.", safeErr))
		return
	}
	_ = b.sessions.Delete(ctx, session.ID)
	b.send(chatID, fmt.Sprintf("✅ Profile created for *%s*!\n\n%s\nSend /plan to generate your first weekly plan.",
		user.Username, formatProfile(user)))
}

func sexKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Female", "sex|female"),
			tgbotapi.NewInlineKeyboardButtonData("Male", "sex|male"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Non-binary", "sex|nonbinary"),
			tgbotapi.NewInlineKeyboardButtonData("Other", "sex|other"),
		),
	)
}

func activityKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(activityLevels))
	for _, level := range activityLevels {
		label := strings.ReplaceAll(level, "_", " ")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(titleCase(label), "act|"+level),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// preferencesKeyboard renders one toggle button per preference key plus a
// done/close button with the given callback data.
func preferencesKeyboard(prefs map[string]bool, togglePrefix, doneData string) tgbotapi.InlineKeyboardMarkup {
	keys := append([]string(nil), defaultPreferenceKeys...)
	extras := make([]string, 0, len(prefs))
	for key := range prefs {
		if !contains(keys, key) {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	keys = append(keys, extras...)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keys)+1)
	for _, key := range keys {
		mark := "⬜"
		if prefs[key] {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s", mark, strings.ReplaceAll(key, "_", " "))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, togglePrefix+"|"+key),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Done", doneData),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
