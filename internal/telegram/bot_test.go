package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/database"
	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID  int64 = 42
	testAdminID int64 = 7
	testPlanID        = "3f1c9a52-8a8e-4b7c-9a55-6f0f4c1d2e3b"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	var u tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// texts returns the text of every sent message and edit, in order.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) last() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type fakeService struct {
	mu          sync.Mutex
	source      planner.Source
	answers     []planner.Questionnaire
	current     *planner.CurrentPlans
	statusErr   error
	mealUpdates []callbackAction
}

func (s *fakeService) GenerateWeeklyPlans(_ context.Context, _ string, answers planner.Questionnaire) (*planner.WeeklyPlans, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, answers)

	meals, workouts := planner.Synthesize(1900, nutrition.Female)
	start := time.Date(2026, 10, 11, 0, 0, 0, 0, time.Local)
	return &planner.WeeklyPlans{
		MealPlan: &planner.MealPlan{
			ID: testPlanID, StartDate: start, EndDate: start.AddDate(0, 0, 6),
			Source: s.source, Meals: meals.Meals, TotalNutrition: *meals.TotalNutrition,
		},
		WorkoutPlan: &planner.WorkoutPlan{ID: testPlanID, Source: s.source, Workouts: workouts.Workouts},
		Targets:     nutrition.Targets{TargetDailyCalories: 1900},
		Attempts:    3,
	}, nil
}

func (s *fakeService) GetCurrentPlans(context.Context, string) (*planner.CurrentPlans, error) {
	if s.current == nil {
		return &planner.CurrentPlans{}, nil
	}
	return s.current, nil
}

func (s *fakeService) UpdateMealStatus(_ context.Context, _ string, planID string, index int, completed, skipped bool) (*planner.MealPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	status := statusDone
	if skipped {
		status = statusSkip
	}
	s.mealUpdates = append(s.mealUpdates, callbackAction{Kind: kindMeal, Status: status, PlanID: planID, Index: index})
	return s.current.MealPlan, nil
}

func (s *fakeService) UpdateWorkoutStatus(context.Context, string, string, int, bool, bool) (*planner.WorkoutPlan, error) {
	return s.current.WorkoutPlan, s.statusErr
}

type testBot struct {
	*Bot
	api      *fakeAPI
	service  *fakeService
	profiles *profile.Repository
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bot.db")
	db, err := database.NewDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		TelegramAllowedUserIDs: []int64{testUserID},
		AdminTelegramID:        testAdminID,
		DatabasePath:           dbPath,
	}
	api := &fakeAPI{}
	service := &fakeService{source: planner.SourceGenerated}
	profiles := profile.NewRepository(db.SQL)
	bot := newBot(api, cfg, service, profiles, NewSessionRepository(db.SQL), nil)
	return &testBot{Bot: bot, api: api, service: service, profiles: profiles}
}

func command(userID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID, FirstName: "Ana"},
		Chat:     &tgbotapi.Chat{ID: userID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func text(userID int64, s string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Ana"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: s,
	}
}

func TestBot_QuestionnaireFlow(t *testing.T) {
	b := newTestBot(t)

	b.processMessage(command(testUserID, "/plan"))
	assert.Contains(t, b.api.last(), "I need your profile first")

	b.processMessage(command(testUserID, "/profile sex=female age=31 height=168 weight=64.5 activity=moderate goal=slabire restrictions=lactose"))
	assert.Contains(t, b.api.last(), "Profile saved")

	p, err := b.profiles.Get(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, nutrition.WeightLoss, p.Objective)
	assert.Equal(t, []string{"lactose"}, p.DietaryRestrictions)

	b.processMessage(command(testUserID, "/plan"))
	assert.Contains(t, b.api.last(), "want to lose")

	b.processMessage(text(testUserID, "5 kg"))
	assert.Equal(t, timeframeQuestion, b.api.last())

	b.processMessage(text(testUserID, "3 luni"))
	assert.Contains(t, b.api.last(), "Your week is ready")
	assert.Contains(t, b.api.last(), "1900 kcal")
	assert.NotContains(t, b.api.last(), "AI planner was unavailable")

	require.Len(t, b.service.answers, 1)
	assert.Equal(t, planner.Questionnaire{"weight_goal": "5 kg", "timeframe_goal": "3 luni"}, b.service.answers[0])

	session, err := b.sessions.GetActive(context.Background(), "42", time.Now())
	require.NoError(t, err)
	assert.Nil(t, session)

	b.processMessage(text(testUserID, "hello?"))
	assert.Contains(t, b.api.last(), "Send /plan")
}

func TestBot_MaintenanceSkipsQuestions(t *testing.T) {
	b := newTestBot(t)
	b.processMessage(command(testUserID, "/profile sex=male age=40 height=180 weight=80 goal=maintenance"))

	b.processMessage(command(testUserID, "/plan"))

	require.Len(t, b.service.answers, 1)
	assert.Empty(t, b.service.answers[0])
	assert.Contains(t, b.api.last(), "Your week is ready")
}

func TestBot_FallbackNotice(t *testing.T) {
	b := newTestBot(t)
	b.service.source = planner.SourceFallback
	b.processMessage(command(testUserID, "/profile sex=male age=40 height=180 weight=80 goal=maintenance"))

	b.processMessage(command(testUserID, "/plan"))

	texts := b.api.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Contains(t, texts[len(texts)-2], "AI planner was unavailable")

	alert, ok := b.api.sent[len(b.api.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, testAdminID, alert.ChatID)
	assert.Contains(t, alert.Text, "Fallback plan delivered")
}

func TestBot_CancelQuestionnaire(t *testing.T) {
	b := newTestBot(t)
	b.processMessage(command(testUserID, "/profile sex=female age=31 height=168 weight=64 goal=muscle-gain"))
	b.processMessage(command(testUserID, "/plan"))
	assert.Contains(t, b.api.last(), "want to gain")

	b.processMessage(command(testUserID, "/cancel"))
	b.processMessage(text(testUserID, "4 kg"))

	assert.Empty(t, b.service.answers)
	assert.Contains(t, b.api.last(), "Send /plan")
}

func TestBot_WeightCommand(t *testing.T) {
	b := newTestBot(t)
	b.processMessage(command(testUserID, "/profile sex=female age=31 height=168 weight=64 goal=weight-loss"))

	b.processMessage(command(testUserID, "/weight 63,4"))
	assert.Contains(t, b.api.last(), "Recorded 63.4 kg")

	b.processMessage(command(testUserID, "/weight heavy"))
	assert.Contains(t, b.api.last(), "Usage")

	weights, err := b.profiles.RecentWeights(context.Background(), "42", 5)
	require.NoError(t, err)
	require.Len(t, weights, 1)
	assert.InDelta(t, 63.4, weights[0].WeightKG, 0.001)
}

func currentFixture() *planner.CurrentPlans {
	meals, workouts := planner.Synthesize(2000, nutrition.Female)
	return &planner.CurrentPlans{
		MealPlan:    &planner.MealPlan{ID: testPlanID, Meals: meals.Meals},
		WorkoutPlan: &planner.WorkoutPlan{ID: testPlanID, Workouts: workouts.Workouts},
		CurrentDay:  2,
	}
}

func TestBot_ShoppingCommand(t *testing.T) {
	b := newTestBot(t)
	b.processMessage(command(testUserID, "/shopping"))
	assert.Contains(t, b.api.last(), "no meal plan")

	b.service.current = currentFixture()
	b.processMessage(command(testUserID, "/shopping"))
	assert.Contains(t, b.api.last(), "Shopping list")
	assert.Contains(t, b.api.last(), "Tuesday to Saturday")
}

func TestBot_CallbackQuery(t *testing.T) {
	b := newTestBot(t)
	b.service.current = currentFixture()

	query := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: testUserID}},
		Data:    "meal|skip|" + testPlanID + "|7",
	}
	b.handleCallbackQuery(query)

	require.Len(t, b.service.mealUpdates, 1)
	assert.Equal(t, callbackAction{Kind: kindMeal, Status: statusSkip, PlanID: testPlanID, Index: 7}, b.service.mealUpdates[0])

	require.Len(t, b.api.requests, 1)
	answer := b.api.requests[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, "cb1", answer.CallbackQueryID)
	assert.Equal(t, "⏭️ Skipped", answer.Text)

	edit, ok := b.api.sent[len(b.api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 10, edit.MessageID)
	assert.NotNil(t, edit.ReplyMarkup)
}

func TestBot_CallbackQuery_PlanGone(t *testing.T) {
	b := newTestBot(t)
	b.service.current = currentFixture()
	b.service.statusErr = planner.ErrPlanNotFound

	b.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "cb2",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: testUserID}},
		Data:    "meal|done|" + testPlanID + "|1",
	})

	require.Len(t, b.api.requests, 1)
	assert.Equal(t, "This plan is no longer available.", b.api.requests[0].(tgbotapi.CallbackConfig).Text)
	assert.Empty(t, b.api.sent)
}

func TestBot_Webhook(t *testing.T) {
	b := newTestBot(t)
	mux := http.NewServeMux()
	b.RegisterHandlers(mux)

	post := func(from int64, msg string) {
		update := tgbotapi.Update{UpdateID: 1, Message: command(from, msg)}
		body, err := json.Marshal(update)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body)))
		b.Wait()
	}

	post(99, "/help")
	assert.Empty(t, b.api.texts())

	post(testUserID, "/help")
	assert.Equal(t, []string{helpText}, b.api.texts())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestBot_MetricsAdminOnly(t *testing.T) {
	b := newTestBot(t)
	b.processMessage(command(testUserID, "/metrics"))
	assert.Contains(t, b.api.last(), "Admin only")
}
