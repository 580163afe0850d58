package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback data layout: kind|status|planID|index, e.g. "meal|done|<uuid>|4".
// Telegram caps callback data at 64 bytes.
const (
	kindMeal    = "meal"
	kindWorkout = "workout"

	statusDone = "done"
	statusSkip = "skip"

	maxCallbackData = 64
)

type callbackAction struct {
	Kind   string
	Status string
	PlanID string
	Index  int
}

func (a callbackAction) String() string {
	return strings.Join([]string{a.Kind, a.Status, a.PlanID, strconv.Itoa(a.Index)}, "|")
}

func parseCallbackData(data string) (callbackAction, error) {
	if len(data) > maxCallbackData {
		return callbackAction{}, fmt.Errorf("callback data too long")
	}
	parts := strings.Split(data, "|")
	if len(parts) != 4 {
		return callbackAction{}, fmt.Errorf("malformed callback data %q", data)
	}

	a := callbackAction{Kind: parts[0], Status: parts[1], PlanID: parts[2]}
	if a.Kind != kindMeal && a.Kind != kindWorkout {
		return callbackAction{}, fmt.Errorf("unknown callback kind %q", a.Kind)
	}
	if a.Status != statusDone && a.Status != statusSkip {
		return callbackAction{}, fmt.Errorf("unknown callback status %q", a.Status)
	}
	if a.PlanID == "" {
		return callbackAction{}, fmt.Errorf("callback without plan id")
	}
	idx, err := strconv.Atoi(parts[3])
	if err != nil || idx < 0 {
		return callbackAction{}, fmt.Errorf("invalid callback index %q", parts[3])
	}
	a.Index = idx
	return a, nil
}
