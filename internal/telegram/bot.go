package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/metrics"
	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"
	"ai-fitness-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	sessionTTL        = 30 * time.Minute
	metricsReportDays = 7
)

// PlanService is the planning surface the bot drives.
type PlanService interface {
	GenerateWeeklyPlans(ctx context.Context, userID string, answers planner.Questionnaire) (*planner.WeeklyPlans, error)
	GetCurrentPlans(ctx context.Context, userID string) (*planner.CurrentPlans, error)
	UpdateMealStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (*planner.MealPlan, error)
	UpdateWorkoutStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (*planner.WorkoutPlan, error)
}

// ProfileStore reads and writes user profiles and weigh-ins.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Save(ctx context.Context, p *profile.Profile) error
	LogWeight(ctx context.Context, userID string, w profile.WeightEntry) error
}

// UsageReporter provides the daily token report for /metrics.
type UsageReporter interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

// messenger is the part of *tgbotapi.BotAPI the bot uses.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Bot wraps the Telegram API and the plan service.
type Bot struct {
	api      messenger
	service  PlanService
	profiles ProfileStore
	sessions *SessionRepository
	usage    UsageReporter
	cfg      *config.Config

	wg  sync.WaitGroup
	now func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	service PlanService,
	profiles ProfileStore,
	sessions *SessionRepository,
	usage UsageReporter,
) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Info().Str("description", resp.Description).Msg("webhook set")
	}

	return newBot(api, cfg, service, profiles, sessions, usage), nil
}

func newBot(api messenger, cfg *config.Config, service PlanService, profiles ProfileStore, sessions *SessionRepository, usage UsageReporter) *Bot {
	return &Bot{
		api:      api,
		service:  service,
		profiles: profiles,
		sessions: sessions,
		usage:    usage,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Wait blocks until every in-flight update has been handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Warn().Err(err).Msg("error parsing update")
		return
	}

	var from *tgbotapi.User
	switch {
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
	case update.Message != nil:
		from = update.Message.From
	default:
		return
	}
	if from == nil {
		return
	}

	if !b.cfg.IsTelegramUserAllowed(from.ID) {
		log.Warn().Int64("telegram_id", from.ID).Str("username", from.UserName).Msg("unauthorized access attempt")
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if update.CallbackQuery != nil {
			b.handleCallbackQuery(update.CallbackQuery)
			return
		}
		b.processMessage(update.Message)
	}()
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := strconv.FormatInt(msg.From.ID, 10)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(msg.Chat.ID, helpText)
		case "profile":
			b.handleProfileCommand(ctx, userID, msg)
		case "weight":
			b.handleWeightCommand(ctx, userID, msg)
		case "plan":
			b.startQuestionnaire(ctx, userID, msg.Chat.ID)
		case "cancel":
			if err := b.sessions.DeleteForUser(ctx, userID); err != nil {
				log.Error().Err(err).Str("user", userID).Msg("failed to cancel session")
			}
			b.reply(msg.Chat.ID, "Cancelled.")
		case "today":
			b.handleTodayCommand(ctx, userID, msg.Chat.ID)
		case "week":
			b.handleWeekCommand(ctx, userID, msg.Chat.ID)
		case "shopping":
			b.handleShoppingCommand(ctx, userID, msg.Chat.ID)
		case "metrics":
			b.handleMetricsRequest(msg)
		default:
			b.reply(msg.Chat.ID, "Unknown command. Send /help to see what I can do.")
		}
		return
	}

	session, err := b.sessions.GetActive(ctx, userID, b.now())
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to load session")
		b.reply(msg.Chat.ID, "❌ Something went wrong, please try again.")
		return
	}
	if session == nil || session.SessionType != SessionTypeQuestionnaire {
		b.reply(msg.Chat.ID, "Send /plan to create your weekly plans or /help for all commands.")
		return
	}
	b.continueQuestionnaire(ctx, userID, msg, session)
}

func (b *Bot) handleProfileCommand(ctx context.Context, userID string, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		p, err := b.profiles.Get(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user", userID).Msg("failed to load profile")
			b.reply(msg.Chat.ID, "❌ Could not load your profile.")
			return
		}
		if p == nil {
			b.reply(msg.Chat.ID, profileUsage)
			return
		}
		b.reply(msg.Chat.ID, formatProfile(p))
		return
	}

	p, err := parseProfileArgs(userID, msg.From.FirstName, args)
	if err != nil {
		b.reply(msg.Chat.ID, "❌ "+err.Error()+"\n\n"+profileUsage)
		return
	}
	if err := b.profiles.Save(ctx, p); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to save profile")
		b.reply(msg.Chat.ID, "❌ Could not save your profile: "+err.Error())
		return
	}
	b.reply(msg.Chat.ID, "✅ Profile saved.\n\n"+formatProfile(p))
}

func (b *Bot) handleWeightCommand(ctx context.Context, userID string, msg *tgbotapi.Message) {
	kg, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(msg.CommandArguments()), ",", "."), 64)
	if err != nil || kg <= 0 {
		b.reply(msg.Chat.ID, "Usage: /weight 72.5")
		return
	}
	if err := b.profiles.LogWeight(ctx, userID, profile.WeightEntry{WeightKG: kg, RecordedAt: b.now()}); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to log weight")
		b.reply(msg.Chat.ID, "❌ Could not record your weight. Did you set up /profile?")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Recorded %.1f kg.", kg))
}

func (b *Bot) startQuestionnaire(ctx context.Context, userID string, chatID int64) {
	p, err := b.profiles.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to load profile")
		b.reply(chatID, "❌ Could not load your profile.")
		return
	}
	if p == nil {
		b.reply(chatID, "I need your profile first.\n\n"+profileUsage)
		return
	}

	if err := b.sessions.DeleteForUser(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("failed to clear old sessions")
	}
	data := SessionContextData{Answers: map[string]string{}, ChatID: chatID}

	if p.Objective == nutrition.Maintenance {
		// Nothing to ask: maintenance ignores the weight goal and timeframe.
		b.generate(ctx, userID, chatID, planner.Questionnaire{})
		return
	}

	if _, err := b.sessions.Create(ctx, userID, SessionTypeQuestionnaire, StateAwaitingWeightGoal, data, sessionTTL); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to start questionnaire")
		b.reply(chatID, "❌ Something went wrong, please try again.")
		return
	}
	b.reply(chatID, weightGoalQuestion(p.Objective))
}

func (b *Bot) continueQuestionnaire(ctx context.Context, userID string, msg *tgbotapi.Message, session *Session) {
	data, err := session.GetContextData()
	if err != nil {
		log.Warn().Err(err).Int64("session", session.ID).Msg("corrupt session data, restarting questionnaire")
		data = SessionContextData{}
	}
	if data.Answers == nil {
		data.Answers = map[string]string{}
	}
	answer := strings.TrimSpace(msg.Text)

	switch session.State {
	case StateAwaitingWeightGoal:
		data.Answers[nutrition.WeightGoalKey] = answer
		if err := b.sessions.Update(ctx, session.ID, StateAwaitingTimeframe, data); err != nil {
			log.Error().Err(err).Str("user", userID).Msg("failed to advance questionnaire")
			b.reply(msg.Chat.ID, "❌ Something went wrong, please try again.")
			return
		}
		b.reply(msg.Chat.ID, timeframeQuestion)

	case StateAwaitingTimeframe:
		data.Answers[nutrition.TimeframeGoalKey] = answer
		if err := b.sessions.Delete(ctx, session.ID); err != nil {
			log.Warn().Err(err).Int64("session", session.ID).Msg("failed to close questionnaire session")
		}
		answers := planner.Questionnaire{}
		for k, v := range data.Answers {
			answers[k] = v
		}
		b.generate(ctx, userID, msg.Chat.ID, answers)

	default:
		log.Warn().Str("state", session.State).Int64("session", session.ID).Msg("unknown session state")
		b.sessions.Delete(ctx, session.ID)
		b.reply(msg.Chat.ID, "Send /plan to start again.")
	}
}

func (b *Bot) generate(ctx context.Context, userID string, chatID int64, answers planner.Questionnaire) {
	sent, err := b.api.Send(markdown(tgbotapi.NewMessage(chatID, "🏋️ *Building your week...*\n(This can take a minute)")))
	if err != nil {
		log.Error().Err(err).Msg("failed to send initial reply")
		return
	}

	plans, err := b.service.GenerateWeeklyPlans(ctx, userID, answers)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("error generating plans")
		text := "❌ Could not create your plans."
		if errors.Is(err, planner.ErrUserNotFound) {
			text += "\n\n" + profileUsage
		}
		b.edit(chatID, sent.MessageID, text, nil)
		return
	}

	b.edit(chatID, sent.MessageID, formatWeeklySummary(plans), nil)
	if plans.MealPlan.Source == planner.SourceFallback {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Fallback plan delivered*\nUser: %s\nAttempts: %d", userID, plans.Attempts))
	}
}

func (b *Bot) handleTodayCommand(ctx context.Context, userID string, chatID int64) {
	current, err := b.service.GetCurrentPlans(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to load current plans")
		b.reply(chatID, "❌ Could not load your plans.")
		return
	}
	text, keyboard := formatToday(current)
	msg := markdown(tgbotapi.NewMessage(chatID, text))
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	b.api.Send(msg)
}

func (b *Bot) handleWeekCommand(ctx context.Context, userID string, chatID int64) {
	current, err := b.service.GetCurrentPlans(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to load current plans")
		b.reply(chatID, "❌ Could not load your plans.")
		return
	}
	b.reply(chatID, formatWeek(current))
}

func (b *Bot) handleShoppingCommand(ctx context.Context, userID string, chatID int64) {
	current, err := b.service.GetCurrentPlans(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to load current plans")
		b.reply(chatID, "❌ Could not load your plans.")
		return
	}
	if current.MealPlan == nil {
		b.reply(chatID, "You have no meal plan for this week yet. Send /plan to create one.")
		return
	}
	b.reply(chatID, formatShoppingList(shopping.Build(current.MealPlan, current.CurrentDay)))
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	userID := strconv.FormatInt(query.From.ID, 10)

	action, err := parseCallbackData(query.Data)
	if err != nil {
		log.Warn().Err(err).Str("data", query.Data).Msg("ignoring callback")
		b.api.Request(tgbotapi.NewCallback(query.ID, ""))
		return
	}

	completed, skipped := action.Status == statusDone, action.Status == statusSkip
	switch action.Kind {
	case kindMeal:
		_, err = b.service.UpdateMealStatus(ctx, userID, action.PlanID, action.Index, completed, skipped)
	case kindWorkout:
		_, err = b.service.UpdateWorkoutStatus(ctx, userID, action.PlanID, action.Index, completed, skipped)
	}

	notice := "✅ Done"
	if skipped {
		notice = "⏭️ Skipped"
	}
	switch {
	case errors.Is(err, planner.ErrNotFound):
		notice = "This plan is no longer available."
	case err != nil:
		log.Error().Err(err).Str("user", userID).Str("data", query.Data).Msg("failed to update status")
		notice = "❌ Could not update, please try again."
	}
	b.api.Request(tgbotapi.NewCallback(query.ID, notice))
	if err != nil || query.Message == nil {
		return
	}

	current, err := b.service.GetCurrentPlans(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to refresh today view")
		return
	}
	text, keyboard := formatToday(current)
	b.edit(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.usage.GetDailyUsage(metricsReportDays)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch metrics")
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.reply(msg.Chat.ID, formatMetricsReport(usage, metrics.GetSysHealth(b.cfg.DatabasePath)))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(markdown(tgbotapi.NewMessage(chatID, text))); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("failed to send message")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("failed to edit message")
	}
}

func markdown(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}
