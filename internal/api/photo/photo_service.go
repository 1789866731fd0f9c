package photo

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/cache"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// VenuePhotoProvider returns a photo for a venue near known coordinates.
// (nil, nil) means no photo, which is not an error.
type VenuePhotoProvider interface {
	Name() string
	PhotoNear(ctx context.Context, lat, lng float64, query string) (*types.Photo, error)
}

// StockPhotoProvider returns a generic stock photo for a search term.
type StockPhotoProvider interface {
	Name() string
	Search(ctx context.Context, term string) (*types.Photo, error)
}

// PlaceholderProvider produces a deterministic image for a seed; it must
// always succeed (no network dependency).
type PlaceholderProvider interface {
	Name() string
	Placeholder(seed string) *types.Photo
	IsPlaceholder(url string) bool
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service resolves photos through an ordered waterfall of providers,
// memoizing every success in the enrichment cache.
type Service interface {
	ResolvePhoto(ctx context.Context, query string, place *types.ResolvedPlace, hints *types.PlaceHints) *types.Photo
	Cached(ctx context.Context, query string) (*types.Photo, bool)
	IsPlaceholder(url string) bool
}

type ServiceImpl struct {
	logger      *slog.Logger
	venue       VenuePhotoProvider
	stock       StockPhotoProvider
	placeholder PlaceholderProvider
	cache       *cache.EnrichmentCache
}

func NewService(venue VenuePhotoProvider, stock StockPhotoProvider, placeholder PlaceholderProvider, c *cache.EnrichmentCache, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		venue:       venue,
		stock:       stock,
		placeholder: placeholder,
		cache:       c,
	}
}

// photoTier is one rung of the waterfall; nil result means fall through.
type photoTier func(ctx context.Context) *types.Photo

// Cached returns a memoized photo for the query without touching any
// provider.
func (s *ServiceImpl) Cached(ctx context.Context, query string) (*types.Photo, bool) {
	key := cache.NormalizeKey(query)
	entry, found := s.cache.Get(ctx, key)
	if !found {
		metrics.Get().CacheMissesTotal.Add(ctx, 1)
		return nil, false
	}
	metrics.Get().CacheHitsTotal.Add(ctx, 1)
	return &types.Photo{URL: entry.URL, ThumbURL: entry.ThumbURL, Reference: entry.Reference, Source: entry.Source}, true
}

func (s *ServiceImpl) IsPlaceholder(url string) bool {
	return s.placeholder.IsPlaceholder(url)
}

// ResolvePhoto walks the waterfall: cache, venue photos scoped to resolved
// coordinates, stock photos over derived search terms, deterministic
// placeholder. The placeholder tier guarantees a non-nil result.
func (s *ServiceImpl) ResolvePhoto(ctx context.Context, query string, place *types.ResolvedPlace, hints *types.PlaceHints) *types.Photo {
	ctx, span := otel.Tracer("PhotoResolver").Start(ctx, "ResolvePhoto", trace.WithAttributes(
		attribute.String("photo.query", query),
	))
	defer span.End()

	if cached, found := s.Cached(ctx, query); found {
		span.SetAttributes(attribute.String("photo.source", "cache"))
		return cached
	}

	tiers := []photoTier{
		s.venueTier(query, place),
		s.stockTier(query, hints),
	}
	result := firstPhoto(ctx, tiers)
	if result == nil {
		result = s.placeholder.Placeholder(query)
	}

	span.SetAttributes(attribute.String("photo.source", result.Source))
	s.cache.Set(ctx, cache.NormalizeKey(query), cache.Entry{
		URL:       result.URL,
		ThumbURL:  result.ThumbURL,
		Reference: result.Reference,
		Source:    result.Source,
	})
	return result
}

// firstPhoto reduces the ordered tier list to the first non-nil result.
func firstPhoto(ctx context.Context, tiers []photoTier) *types.Photo {
	for _, tier := range tiers {
		if tier == nil {
			continue
		}
		if photo := tier(ctx); photo != nil {
			return photo
		}
	}
	return nil
}

func (s *ServiceImpl) venueTier(query string, place *types.ResolvedPlace) photoTier {
	if s.venue == nil || place == nil || (place.Latitude == 0 && place.Longitude == 0) {
		return nil
	}
	return func(ctx context.Context) *types.Photo {
		photo, err := s.venue.PhotoNear(ctx, place.Latitude, place.Longitude, query)
		if err != nil {
			metrics.Get().ProviderFailuresTotal.Add(ctx, 1)
			s.logger.WarnContext(ctx, "Venue photo provider failed",
				slog.String("provider", s.venue.Name()), slog.Any("error", err))
			return nil
		}
		return photo
	}
}

func (s *ServiceImpl) stockTier(query string, hints *types.PlaceHints) photoTier {
	if s.stock == nil {
		return nil
	}
	terms := searchTerms(query, hints)
	return func(ctx context.Context) *types.Photo {
		for _, term := range terms {
			photo, err := s.stock.Search(ctx, term)
			if err != nil {
				metrics.Get().ProviderFailuresTotal.Add(ctx, 1)
				s.logger.WarnContext(ctx, "Stock photo provider failed",
					slog.String("provider", s.stock.Name()), slog.String("term", term), slog.Any("error", err))
				continue
			}
			if photo != nil {
				return photo
			}
		}
		return nil
	}
}

// venueKeywords maps query keywords to a stock-search venue type, most
// specific first.
var venueKeywords = []struct {
	keyword   string
	venueType string
}{
	{"restaurant", "restaurant"},
	{"dinner", "restaurant"},
	{"lunch", "restaurant"},
	{"cafe", "cafe"},
	{"coffee", "cafe"},
	{"bar", "bar"},
	{"museum", "museum"},
	{"gallery", "museum"},
	{"beach", "beach"},
	{"park", "park"},
	{"garden", "park"},
	{"hotel", "hotel"},
	{"hostel", "hotel"},
	{"resort", "hotel"},
	{"market", "market"},
	{"castle", "landmark"},
	{"palace", "landmark"},
	{"cathedral", "landmark"},
	{"church", "landmark"},
	{"temple", "landmark"},
	{"tower", "landmark"},
	{"bridge", "landmark"},
	{"monument", "landmark"},
	{"airport", "airport"},
	{"station", "station"},
}

func inferVenueType(query string) string {
	lower := strings.ToLower(query)
	for _, vk := range venueKeywords {
		if strings.Contains(lower, vk.keyword) {
			return vk.venueType
		}
	}
	return ""
}

// searchTerms orders derived stock-search terms by specificity:
// "<venue-type> <city>", "<venue-type> <country>", "<city>", raw query.
func searchTerms(query string, hints *types.PlaceHints) []string {
	var terms []string
	venueType := inferVenueType(query)
	if hints != nil {
		if venueType != "" && hints.City != "" {
			terms = append(terms, venueType+" "+hints.City)
		}
		if venueType != "" && hints.Country != "" {
			terms = append(terms, venueType+" "+hints.Country)
		}
		if hints.City != "" {
			terms = append(terms, hints.City)
		}
	}
	return append(terms, query)
}
