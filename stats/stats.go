// Package stats rolls a log of watch events up into viewing totals.
package stats

import (
	"time"

	"reel-deck/storage"
)

// Totals is a count of viewings and their combined runtime.
type Totals struct {
	Count   int `json:"count"`
	Minutes int `json:"minutes"`
}

// Summary holds aggregated viewing totals by period and breakdowns by media
// kind and viewing category.
type Summary struct {
	AllTime    Totals            `json:"all_time"`
	ThisYear   Totals            `json:"this_year"`
	ThisMonth  Totals            `json:"this_month"`
	ThisWeek   Totals            `json:"this_week"`
	ByKind     map[string]Totals `json:"by_kind"`
	ByCategory map[string]Totals `json:"by_category"`
}

// Aggregate reduces a watch-event log into a Summary relative to now. Pure
// function: the input slice is not modified and no state is kept between
// calls. Weeks start on Monday.
func Aggregate(events []storage.WatchEvent, now time.Time) Summary {
	summary := Summary{
		ByKind:     make(map[string]Totals),
		ByCategory: make(map[string]Totals),
	}

	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	weekStart := startOfWeek(now)

	for _, ev := range events {
		addTo(&summary.AllTime, ev)
		if !ev.WatchedAt.Before(yearStart) {
			addTo(&summary.ThisYear, ev)
		}
		if !ev.WatchedAt.Before(monthStart) {
			addTo(&summary.ThisMonth, ev)
		}
		if !ev.WatchedAt.Before(weekStart) {
			addTo(&summary.ThisWeek, ev)
		}

		if ev.Kind != "" {
			totals := summary.ByKind[ev.Kind]
			addTo(&totals, ev)
			summary.ByKind[ev.Kind] = totals
		}
		if ev.Category != "" {
			totals := summary.ByCategory[ev.Category]
			addTo(&totals, ev)
			summary.ByCategory[ev.Category] = totals
		}
	}

	return summary
}

func addTo(totals *Totals, ev storage.WatchEvent) {
	totals.Count++
	totals.Minutes += ev.RuntimeMinutes
}

func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}
