package types

// PlaceHints narrows a free-text place lookup to a city/country context.
type PlaceHints struct {
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// GeocodeCandidate is one match returned by a geocoding provider.
type GeocodeCandidate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Website     string  `json:"website,omitempty"`
}

// ResolvedPlace is the canonical answer for a free-text place query.
// Ephemeral: cached by normalized query key, safe to discard and recompute.
type ResolvedPlace struct {
	PlaceID     string   `json:"place_id"`
	Description string   `json:"description"`
	Latitude    float64  `json:"lat"`
	Longitude   float64  `json:"lng"`
	CountryCode string   `json:"country_code,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	Reviews     []string `json:"reviews,omitempty"`
	BookingURL  string   `json:"bookingUrl,omitempty"`
}

// Photo is a resolved image for an itinerary item.
type Photo struct {
	URL       string `json:"url"`
	ThumbURL  string `json:"thumb"`
	Reference string `json:"reference,omitempty"`
	Source    string `json:"source,omitempty"`
}
