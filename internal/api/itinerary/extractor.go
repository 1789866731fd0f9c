package itinerary

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// fencedBlockRe matches the first triple backtick-or-tilde fenced block,
// optionally tagged json.
var fencedBlockRe = regexp.MustCompile("(?s)(?:`{3}|~{3})(?:json)?\\s*(.*?)(?:`{3}|~{3})")

// Extract locates a structured itinerary block inside arbitrary assistant
// text and returns the candidate tree, or nil when the text carries no
// parseable itinerary. A nil result is an expected outcome, not an error:
// callers keep the conversational text and leave itinerary state alone.
func Extract(rawText string) *types.RawItinerary {
	segment := fencedBlock(rawText)
	if segment == "" {
		segment = braceSlice(rawText)
	}
	if segment == "" {
		return nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(segment), &parsed); err != nil {
		// An unterminated or mislabeled fence can leave prose inside the
		// slice; retry on the bare brace slice of the whole text.
		fallback := braceSlice(rawText)
		if fallback == "" || fallback == segment {
			return nil
		}
		if err := json.Unmarshal([]byte(fallback), &parsed); err != nil {
			return nil
		}
	}
	return matchShape(parsed)
}

func fencedBlock(text string) string {
	m := fencedBlockRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// braceSlice falls back to the first { and last } of the text, tolerating
// responses where the fence is missing or never closed.
func braceSlice(text string) string {
	first := strings.Index(text, "{")
	if first == -1 {
		return ""
	}
	last := strings.LastIndex(text, "}")
	if last == -1 || last <= first {
		return ""
	}
	return strings.TrimSpace(text[first : last+1])
}

// matchShape accepts the known response shapes in fixed priority order and
// normalizes each to the canonical day/item tree:
//  1. { "itinerary": [...] }
//  2. bare top-level day array
//  3. { "items": [...] } single-day shorthand
//  4. { "title": ... } single-item shorthand
func matchShape(parsed any) *types.RawItinerary {
	switch v := parsed.(type) {
	case map[string]any:
		if days, ok := v["itinerary"].([]any); ok {
			return rawTreeFromDays(days)
		}
		if items, ok := v["items"].([]any); ok {
			return &types.RawItinerary{Days: []types.RawDay{rawDayFromMap(v, items)}}
		}
		if asString(v["title"]) != "" {
			return &types.RawItinerary{Days: []types.RawDay{{Items: []types.RawItem{rawItemFromMap(v)}}}}
		}
	case []any:
		return rawTreeFromDays(v)
	}
	return nil
}

func rawTreeFromDays(days []any) *types.RawItinerary {
	tree := &types.RawItinerary{}
	for _, d := range days {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		items, _ := m["items"].([]any)
		tree.Days = append(tree.Days, rawDayFromMap(m, items))
	}
	if len(tree.Days) == 0 {
		return nil
	}
	return tree
}

func rawDayFromMap(m map[string]any, items []any) types.RawDay {
	day := types.RawDay{
		Day:  asInt(m["day"]),
		Date: asString(m["date"]),
	}
	for _, it := range items {
		im, ok := it.(map[string]any)
		if !ok {
			continue
		}
		day.Items = append(day.Items, rawItemFromMap(im))
	}
	return day
}

func rawItemFromMap(m map[string]any) types.RawItem {
	item := types.RawItem{
		Title:       asString(m["title"]),
		Type:        asString(m["type"]),
		TimeRange:   asString(m["timeRange"]),
		Start:       asString(m["start"]),
		End:         asString(m["end"]),
		Description: asString(m["description"]),
		City:        asString(m["city"]),
		Country:     asString(m["country"]),
		ImageURL:    asString(m["imageUrl"]),
		ThumbURL:    asString(m["thumbUrl"]),
		BookingURL:  asString(m["bookingUrl"]),
		Rating:      asFloat(m["rating"]),
	}
	if item.TimeRange == "" {
		item.TimeRange = asString(m["time_range"])
	}
	return item
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var i int
		for _, r := range n {
			if r < '0' || r > '9' {
				return 0
			}
			i = i*10 + int(r-'0')
		}
		return i
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
