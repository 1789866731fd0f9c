package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

const dateLayout = "2006-01-02"

// timeRangeRe matches "HH:MM-HH:MM" with optional single-digit hours,
// separated by a hyphen or en/em dash.
var timeRangeRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*[-–—]\s*(\d{1,2}):(\d{2})\s*$`)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize converts an extracted candidate tree into the canonical daily
// plans: stable ids, day numbers and dates filled in, human time ranges
// turned into instants, and hotels stably partitioned to the front of each
// day. Malformed per-item data degrades to defaults, never to an error.
// now is injectable so tests can pin "today".
func Normalize(raw *types.RawItinerary, now func() time.Time) []*types.DailyPlan {
	if raw == nil {
		return nil
	}
	today := now()

	plans := make([]*types.DailyPlan, 0, len(raw.Days))
	for idx, rawDay := range raw.Days {
		plan := &types.DailyPlan{
			Day:   rawDay.Day,
			Date:  rawDay.Date,
			Items: make([]*types.ItineraryItem, 0, len(rawDay.Items)),
		}
		if plan.Day <= 0 {
			plan.Day = idx + 1
		}
		if _, err := time.Parse(dateLayout, plan.Date); err != nil {
			plan.Date = today.AddDate(0, 0, idx).Format(dateLayout)
		}

		for j, rawItem := range rawDay.Items {
			plan.Items = append(plan.Items, normalizeItem(rawItem, plan.Date, idx, j))
		}
		plan.Items = hotelFirstPartition(plan.Items)
		plans = append(plans, plan)
	}
	return plans
}

func normalizeItem(raw types.RawItem, date string, dayIdx, itemIdx int) *types.ItineraryItem {
	title := raw.Title
	if title == "" {
		title = "Untitled"
	}

	item := &types.ItineraryItem{
		ID:          synthesizeItemID(dayIdx, itemIdx, title),
		Title:       title,
		Type:        types.ParseItemType(raw.Type),
		TimeRange:   raw.TimeRange,
		Description: raw.Description,
		City:        raw.City,
		Country:     raw.Country,
		ImageURL:    raw.ImageURL,
		ThumbURL:    raw.ThumbURL,
		BookingURL:  raw.BookingURL,
		Rating:      raw.Rating,
	}

	if start, ok := parseInstant(raw.Start); ok {
		item.Start = start
	}
	if end, ok := parseInstant(raw.End); ok {
		item.End = end
	}
	if item.Start == nil && item.End == nil && raw.TimeRange != "" {
		item.Start, item.End = instantsFromTimeRange(raw.TimeRange, date)
	}
	return item
}

// synthesizeItemID composes day index, item index, a short slug of the
// title and a random suffix, so ids stay unique even when the model repeats
// titles across days.
func synthesizeItemID(dayIdx, itemIdx int, title string) string {
	return fmt.Sprintf("d%d-i%d-%s-%s", dayIdx, itemIdx, slug(title, 8), uuid.NewString()[:6])
}

func slug(title string, maxLen int) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

func parseInstant(s string) (*time.Time, bool) {
	if s == "" {
		return nil, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// instantsFromTimeRange combines a "HH:MM-HH:MM" range with the day's date.
// A range that does not match the pattern yields nil instants, not an error.
func instantsFromTimeRange(timeRange, date string) (*time.Time, *time.Time) {
	m := timeRangeRe.FindStringSubmatch(timeRange)
	if m == nil {
		return nil, nil
	}
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return nil, nil
	}

	startHour, _ := strconv.Atoi(m[1])
	startMin, _ := strconv.Atoi(m[2])
	endHour, _ := strconv.Atoi(m[3])
	endMin, _ := strconv.Atoi(m[4])
	if startHour > 23 || startMin > 59 || endHour > 23 || endMin > 59 {
		return nil, nil
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, time.Local)
	end := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, time.Local)
	return &start, &end
}

// hotelFirstPartition stably moves HOTEL items to the front: relative order
// among hotels and among non-hotels is preserved.
func hotelFirstPartition(items []*types.ItineraryItem) []*types.ItineraryItem {
	hotels := make([]*types.ItineraryItem, 0, len(items))
	rest := make([]*types.ItineraryItem, 0, len(items))
	for _, item := range items {
		if item.Type == types.ItemTypeHotel {
			hotels = append(hotels, item)
		} else {
			rest = append(rest, item)
		}
	}
	return append(hotels, rest...)
}
