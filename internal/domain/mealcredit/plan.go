package mealcredit

import (
	"strings"
	"time"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

// planMeals is checked in order; the first keyword contained in the plan
// name wins.
var planMeals = []struct {
	keyword string
	meals   int
}{
	{"weekly", 5},
	{"monthly", 20},
	{"termly", 60},
}

// MealsForPlan maps a product name to the number of meals it buys.
// Daily and unrecognised plans buy one meal.
func MealsForPlan(planType string) int {
	p := strings.ToLower(planType)
	for _, m := range planMeals {
		if strings.Contains(p, m.keyword) {
			return m.meals
		}
	}
	return 1
}

var serviceDateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// ServiceDate parses the date a purchase starts. Unparseable or empty
// input falls back to today.
func ServiceDate(raw string, c clock.Clock) clock.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return clock.Today(c)
	}
	loc := c.Now().Location()
	for _, layout := range serviceDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return clock.DateOf(t.In(loc))
		}
	}
	return clock.Today(c)
}
