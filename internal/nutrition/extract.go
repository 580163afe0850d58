package nutrition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Questionnaire keys read by the extractors.
const (
	WeightGoalKey    = "weight_goal"
	TimeframeGoalKey = "timeframe_goal"
)

// Defaults when answers are missing or unparseable.
const (
	DefaultWeightChangeKG  = 5
	DefaultTimeframeMonths = 3
)

var firstIntRe = regexp.MustCompile(`\d+`)

// Month phrases checked in order. Word boundaries keep "12 months" from matching "2 months".
var monthPhrases = []struct {
	re     *regexp.Regexp
	months int
}{
	{regexp.MustCompile(`\b18\s*(months?|luni)\b`), 18},
	{regexp.MustCompile(`\b12\s*(months?|luni)\b|\b1\s*(years?|an)\b|\ba year\b`), 12},
	{regexp.MustCompile(`\b9\s*(months?|luni)\b`), 9},
	{regexp.MustCompile(`\b6\s*(months?|luni)\b|\bhalf a year\b`), 6},
	{regexp.MustCompile(`\b3\s*(months?|luni)\b`), 3},
	{regexp.MustCompile(`\b2\s*(months?|luni)\b`), 2},
	{regexp.MustCompile(`\b1\s*(month\b|lun[ăa])|\ba month\b`), 1},
}

var genericMonthsRe = regexp.MustCompile(`(\d+)\s*(months?|lun[iăa])`)

// ExtractWeightChangeGoal returns the first integer in the weight goal answer,
// or DefaultWeightChangeKG. Best effort: "lose 5-7 kg" yields 5.
func ExtractWeightChangeGoal(answers map[string]any) int {
	text := firstAnswer(answers, WeightGoalKey)
	if m := firstIntRe.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return n
		}
	}
	return DefaultWeightChangeKG
}

// ExtractTimeframeMonths maps the timeframe answer onto a number of months,
// or DefaultTimeframeMonths. Best effort, not an exact parser.
func ExtractTimeframeMonths(answers map[string]any) int {
	text := strings.ToLower(firstAnswer(answers, TimeframeGoalKey))
	if text == "" {
		return DefaultTimeframeMonths
	}
	for _, p := range monthPhrases {
		if p.re.MatchString(text) {
			return p.months
		}
	}
	if m := genericMonthsRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return DefaultTimeframeMonths
}

// firstAnswer flattens a questionnaire value: strings as-is, lists by their first element.
func firstAnswer(answers map[string]any, key string) string {
	v, ok := answers[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 && val[0] != nil {
			return fmt.Sprint(val[0])
		}
	default:
		return fmt.Sprint(val)
	}
	return ""
}
