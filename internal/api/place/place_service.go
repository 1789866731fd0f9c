package place

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// GeocodingProvider is one tier of the geocoding waterfall.
// A (nil, nil) return means "no match", which is not an error.
type GeocodingProvider interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.GeocodeCandidate, error)
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service resolves free-text place descriptions to canonical place records.
type Service interface {
	ResolvePlace(ctx context.Context, query string, hints *types.PlaceHints) (*types.ResolvedPlace, error)
}

// ServiceImpl drives a primary geocoder with a secondary fallback.
type ServiceImpl struct {
	logger    *slog.Logger
	providers []GeocodingProvider
}

func NewService(primary, secondary GeocodingProvider, logger *slog.Logger) *ServiceImpl {
	providers := []GeocodingProvider{primary}
	if secondary != nil {
		providers = append(providers, secondary)
	}
	return &ServiceImpl{logger: logger, providers: providers}
}

// leading action phrases the chat model prepends to place titles.
var actionPrefixes = []string{
	"visit ",
	"explore ",
	"tour ",
	"see ",
	"walk around ",
	"dinner at ",
	"lunch at ",
	"breakfast at ",
	"drinks at ",
	"check-in at ",
	"check in at ",
	"check into ",
	"stay at ",
	"overnight at ",
}

// CleanQuery strips a leading action phrase ("Visit ", "Dinner at ", ...)
// case-insensitively, keeping the venue text itself.
func CleanQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	for _, prefix := range actionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

// ResolvePlace resolves a free-text description via the provider waterfall.
// A nil result with nil error means neither provider had a match; callers
// degrade to no coordinates, not to a failure.
func (s *ServiceImpl) ResolvePlace(ctx context.Context, query string, hints *types.PlaceHints) (*types.ResolvedPlace, error) {
	ctx, span := otel.Tracer("PlaceResolver").Start(ctx, "ResolvePlace", trace.WithAttributes(
		attribute.String("place.query", query),
	))
	defer span.End()

	l := s.logger.With(slog.String("service", "PlaceResolver"), slog.String("query", query))

	searchQuery := buildSearchQuery(query, hints)
	for _, provider := range s.providers {
		candidates, err := provider.Search(ctx, searchQuery)
		if err != nil {
			metrics.Get().ProviderFailuresTotal.Add(ctx, 1)
			l.WarnContext(ctx, "Geocoding provider failed",
				slog.String("provider", provider.Name()), slog.Any("error", err))
			continue
		}
		if len(candidates) == 0 {
			l.DebugContext(ctx, "Geocoding provider had no match", slog.String("provider", provider.Name()))
			continue
		}
		chosen := pickCandidate(candidates, hints)
		span.SetAttributes(attribute.String("place.provider", provider.Name()))
		return resolvedFromCandidate(chosen), nil
	}

	l.DebugContext(ctx, "No geocoding provider resolved the query")
	return nil, nil
}

func buildSearchQuery(query string, hints *types.PlaceHints) string {
	parts := []string{CleanQuery(query)}
	if hints != nil {
		if hints.City != "" {
			parts = append(parts, hints.City)
		}
		if hints.Country != "" {
			parts = append(parts, hints.Country)
		}
	}
	return strings.Join(parts, ", ")
}

// pickCandidate prefers the first same-country candidate when a country
// hint is available and the top result disagrees. Best effort: when no
// candidate matches the hint the top result stands.
func pickCandidate(candidates []types.GeocodeCandidate, hints *types.PlaceHints) types.GeocodeCandidate {
	top := candidates[0]
	if hints == nil || hints.CountryCode == "" || len(candidates) < 2 {
		return top
	}
	want := strings.ToLower(hints.CountryCode)
	if strings.ToLower(top.CountryCode) == want {
		return top
	}
	for _, c := range candidates[1:] {
		if strings.ToLower(c.CountryCode) == want {
			return c
		}
	}
	return top
}

func resolvedFromCandidate(c types.GeocodeCandidate) *types.ResolvedPlace {
	return &types.ResolvedPlace{
		PlaceID:     c.ID,
		Description: c.Name,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		CountryCode: c.CountryCode,
		Rating:      c.Rating,
		BookingURL:  c.Website,
	}
}
