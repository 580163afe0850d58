package planner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	codeFenceRe     = regexp.MustCompile("```[A-Za-z]*")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseMealPlan converts raw model output into meal plan data.
// A strict decode is tried first; if it fails, well-formed day-keyed entries
// are salvaged one at a time from the "meals" array. An object without any
// meals is a parse failure, never an empty plan for the repair step to fill.
func ParseMealPlan(raw string) (MealPlanData, error) {
	body, err := extractObject(raw)
	if err != nil {
		return MealPlanData{}, err
	}

	var plan MealPlanData
	strictErr := json.Unmarshal([]byte(body), &plan)
	if strictErr == nil {
		if len(plan.Meals) == 0 {
			return MealPlanData{}, fmt.Errorf("%w: response has no meals", ErrParse)
		}
		return plan, nil
	}

	var meals []MealEntry
	scanObjects(arrayRegion(body, "meals"), func(fragment []byte) bool {
		var m MealEntry
		if json.Unmarshal(fragment, &m) != nil || m.hasMissing("day") {
			return false
		}
		meals = append(meals, m)
		return true
	})
	if len(meals) == 0 {
		return MealPlanData{}, fmt.Errorf("%w: %v", ErrParse, strictErr)
	}

	log.Warn().Err(strictErr).Int("recovered", len(meals)).Msg("meal plan recovered from malformed output")
	return MealPlanData{Meals: meals}, nil
}

// ParseWorkoutPlan converts raw model output into workout plan data, with the
// same fallback recovery as ParseMealPlan over the "workouts" array.
func ParseWorkoutPlan(raw string) (WorkoutPlanData, error) {
	body, err := extractObject(raw)
	if err != nil {
		return WorkoutPlanData{}, err
	}

	var plan WorkoutPlanData
	strictErr := json.Unmarshal([]byte(body), &plan)
	if strictErr == nil {
		if len(plan.Workouts) == 0 {
			return WorkoutPlanData{}, fmt.Errorf("%w: response has no workouts", ErrParse)
		}
		return plan, nil
	}

	var workouts []WorkoutEntry
	scanObjects(arrayRegion(body, "workouts"), func(fragment []byte) bool {
		var w WorkoutEntry
		if json.Unmarshal(fragment, &w) != nil || w.hasMissing("day") {
			return false
		}
		workouts = append(workouts, w)
		return true
	})
	if len(workouts) == 0 {
		return WorkoutPlanData{}, fmt.Errorf("%w: %v", ErrParse, strictErr)
	}

	log.Warn().Err(strictErr).Int("recovered", len(workouts)).Msg("workout plan recovered from malformed output")
	return WorkoutPlanData{Workouts: workouts}, nil
}

// extractObject strips code fences and slices from the first '{' to the last '}'.
func extractObject(raw string) (string, error) {
	s := codeFenceRe.ReplaceAllString(raw, "")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrParse)
	}
	return s[start : end+1], nil
}

// arrayRegion returns the text from the '[' following "key" to the end of body,
// or "" when the key is absent.
func arrayRegion(body, key string) string {
	idx := strings.Index(body, `"`+key+`"`)
	if idx < 0 {
		return ""
	}
	open := strings.IndexByte(body[idx:], '[')
	if open < 0 {
		return ""
	}
	return body[idx+open:]
}

// scanObjects walks balanced {...} fragments in s. accept is called with each
// fragment; when it rejects one, scanning resumes just inside that fragment so a
// single broken entry cannot swallow its well-formed neighbours.
func scanObjects(s string, accept func(fragment []byte) bool) {
	for i := 0; i < len(s); {
		rel := strings.IndexByte(s[i:], '{')
		if rel < 0 {
			return
		}
		start := i + rel
		end := matchingBrace(s, start)
		if end < 0 {
			// Truncated output: nothing after this point is closed.
			i = start + 1
			continue
		}
		fragment := s[start : end+1]
		if accept([]byte(fragment)) || accept([]byte(trailingCommaRe.ReplaceAllString(fragment, "$1"))) {
			i = end + 1
			continue
		}
		i = start + 1
	}
}

// matchingBrace returns the index of the '}' closing the '{' at start, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (m MealEntry) hasMissing(field string) bool {
	for _, f := range m.missing {
		if f == field {
			return true
		}
	}
	return false
}

func (w WorkoutEntry) hasMissing(field string) bool {
	for _, f := range w.missing {
		if f == field {
			return true
		}
	}
	return false
}
