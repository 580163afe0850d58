package planner

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/shared"
)

// MockTextGenerator answers meal and workout prompts with scripted responses.
// Each response is consumed in order; the last one repeats.
type MockTextGenerator struct {
	mu      sync.Mutex
	meal    []string
	workout []string
	err     error
	calls   int
	prompts []llm.Prompt
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt llm.Prompt) (llm.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)

	if err := ctx.Err(); err != nil {
		return llm.ContentResponse{}, err
	}
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}

	usage := shared.TokenUsage{PromptTokens: 100, CompletionTokens: 200, Model: "mock"}
	if strings.Contains(prompt.System, "Create a 7-day meal plan") {
		return llm.ContentResponse{Content: next(&m.meal), Usage: usage}, nil
	}
	return llm.ContentResponse{Content: next(&m.workout), Usage: usage}, nil
}

func (m *MockTextGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func next(queue *[]string) string {
	q := *queue
	if len(q) == 0 {
		return ""
	}
	if len(q) > 1 {
		*queue = q[1:]
	}
	return q[0]
}

// validPlanJSON returns model-shaped output that passes every check for target.
func validPlanJSON(target int) (meal, workout string) {
	m, w := Synthesize(target, nutrition.Female)
	mb, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	wb, err := json.Marshal(w)
	if err != nil {
		panic(err)
	}
	return string(mb), string(wb)
}

func testPlanningContext(target int) PlanningContext {
	return PlanningContext{
		UserID:        "u1",
		Name:          "Ana",
		Age:           30,
		Sex:           nutrition.Female,
		HeightCM:      165,
		WeightKG:      60,
		ActivityLevel: "moderate",
		Objective:     nutrition.Maintenance,
		Questionnaire: Questionnaire{"weight_goal": "0 kg"},
		Targets:       nutrition.Targets{BMR: 1345, TDEE: 2085, TargetDailyCalories: target},
		Language:      "English",
	}
}
