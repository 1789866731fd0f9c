package types

import "time"

// ItemType is the closed set of itinerary item kinds. Unknown values
// normalize to ItemTypeActivity.
type ItemType string

const (
	ItemTypeFlight     ItemType = "FLIGHT"
	ItemTypeHotel      ItemType = "HOTEL"
	ItemTypeActivity   ItemType = "ACTIVITY"
	ItemTypeRestaurant ItemType = "RESTAURANT"
	ItemTypeLodging    ItemType = "LODGING"
	ItemTypeTransport  ItemType = "TRANSPORT"
)

// ParseItemType maps a raw type string onto the closed enum.
func ParseItemType(s string) ItemType {
	switch ItemType(s) {
	case ItemTypeFlight, ItemTypeHotel, ItemTypeActivity, ItemTypeRestaurant, ItemTypeLodging, ItemTypeTransport:
		return ItemType(s)
	default:
		return ItemTypeActivity
	}
}

// ItineraryItem is one bookable/visitable unit of a daily plan.
// ID and Title are immutable once assigned; enrichment fields are only
// ever upgraded from empty/placeholder to a real value, never cleared.
type ItineraryItem struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      ItemType   `json:"type"`
	TimeRange string     `json:"timeRange,omitempty"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`

	// Enrichment outputs. ImageURL/ThumbURL take display precedence over
	// PhotoReference once present.
	ImageURL       string `json:"imageUrl,omitempty"`
	ThumbURL       string `json:"thumbUrl,omitempty"`
	PhotoReference string `json:"photoReference,omitempty"`

	Rating      float64  `json:"rating,omitempty"`
	Reviews     []string `json:"reviews,omitempty"`
	Description string   `json:"description,omitempty"`
	BookingURL  string   `json:"bookingUrl,omitempty"`
	PlaceID     string   `json:"place_id,omitempty"`

	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// DailyPlan is one day's ordered schedule. Within Items all HOTEL entries
// are stably partitioned to the front.
type DailyPlan struct {
	Day   int              `json:"day"`
	Date  string           `json:"date"` // YYYY-MM-DD
	Items []*ItineraryItem `json:"items"`
}

// Itinerary is the normalized top-level structure, days ascending.
// It is created wholesale by the normalizer and replaced atomically by the
// next normalization pass; only enrichment patches mutate it in between.
type Itinerary struct {
	Days []*DailyPlan `json:"itinerary"`
}

// RawItinerary is the shape-agnostic candidate tree the extractor hands to
// the normalizer. Field values are carried as extracted, defaults applied
// later.
type RawItinerary struct {
	Days []RawDay
}

type RawDay struct {
	Day   int
	Date  string
	Items []RawItem
}

type RawItem struct {
	Title       string
	Type        string
	TimeRange   string
	Start       string
	End         string
	Description string
	City        string
	Country     string
	ImageURL    string
	ThumbURL    string
	BookingURL  string
	Rating      float64
}

// ItemPatch is the result of one enrichment task, applied to the current
// itinerary by id lookup. Zero-valued fields are left untouched on apply.
type ItemPatch struct {
	ItemID         string
	ImageURL       string
	ThumbURL       string
	PhotoReference string
	Rating         float64
	Reviews        []string
	Description    string
	BookingURL     string
	PlaceID        string
}
