package enrich

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/photo"
	"github.com/FACorreiaa/go-trip-itinerary/internal/cache"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

// failingPlaceService simulates a geocoder that never resolves anything.
type failingPlaceService struct {
	mu    sync.Mutex
	calls int
}

func (f *failingPlaceService) ResolvePlace(_ context.Context, _ string, _ *types.PlaceHints) (*types.ResolvedPlace, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return nil, nil
}

func (f *failingPlaceService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fixedPlaceService always resolves to the same place.
type fixedPlaceService struct {
	place *types.ResolvedPlace
}

func (f *fixedPlaceService) ResolvePlace(_ context.Context, _ string, _ *types.PlaceHints) (*types.ResolvedPlace, error) {
	return f.place, nil
}

// downVenueProvider and downStockProvider fail every call, pushing the
// waterfall to the placeholder tier.
type downVenueProvider struct{}

func (downVenueProvider) Name() string { return "venue" }
func (downVenueProvider) PhotoNear(context.Context, float64, float64, string) (*types.Photo, error) {
	return nil, errors.New("unreachable")
}

type downStockProvider struct{}

func (downStockProvider) Name() string { return "stock" }
func (downStockProvider) Search(context.Context, string) (*types.Photo, error) {
	return nil, errors.New("unreachable")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newDegradedService(placeSvc interface {
	ResolvePlace(context.Context, string, *types.PlaceHints) (*types.ResolvedPlace, error)
}) (*Service, *photo.PicsumPlaceholder) {
	placeholder := photo.NewPicsumPlaceholder("https://picsum.photos")
	c := cache.NewEnrichmentCache(time.Hour, time.Hour, 100, nil, testLogger())
	photoSvc := photo.NewService(downVenueProvider{}, downStockProvider{}, placeholder, c, testLogger())
	return NewService(placeSvc, photoSvc, 4, testLogger()), placeholder
}

type patchCollector struct {
	mu      sync.Mutex
	patches []types.ItemPatch
}

func (p *patchCollector) apply(_ uint64, patch types.ItemPatch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patches = append(p.patches, patch)
}

func (p *patchCollector) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.patches)
}

func (p *patchCollector) byItem() map[string]types.ItemPatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]types.ItemPatch, len(p.patches))
	for _, patch := range p.patches {
		out[patch.ItemID] = patch
	}
	return out
}

func testPlan() []*types.DailyPlan {
	return []*types.DailyPlan{
		{Day: 1, Date: "2025-10-03", Items: []*types.ItineraryItem{
			{ID: "a", Title: "Visit Louvre", City: "Paris"},
			{ID: "b", Title: "Hotel du Nord", Type: types.ItemTypeHotel},
		}},
		{Day: 2, Date: "2025-10-04", Items: []*types.ItineraryItem{
			{ID: "c", Title: "Montmartre walk"},
		}},
	}
}

func TestEnrich_AllProvidersDownFallsBackToPlaceholders(t *testing.T) {
	placeSvc := &failingPlaceService{}
	svc, placeholder := newDegradedService(placeSvc)
	collector := &patchCollector{}

	assert.NotPanics(t, func() {
		svc.Enrich(context.Background(), 1, testPlan(), collector.apply)
		svc.Wait()
	})

	require.Equal(t, 3, collector.len())
	for itemID, patch := range collector.byItem() {
		assert.True(t, placeholder.IsPlaceholder(patch.ImageURL), "item %s should carry a placeholder", itemID)
		assert.NotEmpty(t, patch.ThumbURL)
	}
}

func TestEnrich_SkipsAlreadyEnrichedItems(t *testing.T) {
	placeSvc := &failingPlaceService{}
	svc, _ := newDegradedService(placeSvc)
	collector := &patchCollector{}

	plan := testPlan()
	plan[0].Items[0].ImageURL = "https://cdn.example.com/already.jpg"

	svc.Enrich(context.Background(), 1, plan, collector.apply)
	svc.Wait()

	patches := collector.byItem()
	assert.NotContains(t, patches, "a")
	assert.Contains(t, patches, "b")
	assert.Contains(t, patches, "c")
	assert.Equal(t, 2, placeSvc.callCount())
}

func TestEnrich_PlaceholderDoesNotCountAsEnriched(t *testing.T) {
	placeSvc := &failingPlaceService{}
	svc, placeholder := newDegradedService(placeSvc)
	collector := &patchCollector{}

	plan := testPlan()
	plan[0].Items[0].ImageURL = placeholder.Placeholder("Visit Louvre").URL

	svc.Enrich(context.Background(), 1, plan, collector.apply)
	svc.Wait()

	// The placeholder item is retried; a later pass may upgrade it.
	assert.Contains(t, collector.byItem(), "a")
}

func TestEnrich_CarriesPlaceMetadata(t *testing.T) {
	placeSvc := &fixedPlaceService{place: &types.ResolvedPlace{
		PlaceID:     "osm:99",
		Description: "Louvre Museum, Paris",
		Latitude:    48.86,
		Longitude:   2.34,
		Rating:      4.8,
		BookingURL:  "https://tickets.example.com/louvre",
	}}
	svc, _ := newDegradedService(placeSvc)
	collector := &patchCollector{}

	svc.Enrich(context.Background(), 7, testPlan(), collector.apply)
	svc.Wait()

	patch, ok := collector.byItem()["a"]
	require.True(t, ok)
	assert.Equal(t, "osm:99", patch.PlaceID)
	assert.InDelta(t, 4.8, patch.Rating, 0.001)
	assert.Equal(t, "https://tickets.example.com/louvre", patch.BookingURL)
}

func TestEnrich_RepeatTitleServedFromCache(t *testing.T) {
	placeSvc := &failingPlaceService{}
	svc, _ := newDegradedService(placeSvc)
	collector := &patchCollector{}

	plan := []*types.DailyPlan{{Day: 1, Date: "2025-10-03", Items: []*types.ItineraryItem{
		{ID: "x", Title: "Visit Louvre"},
	}}}
	svc.Enrich(context.Background(), 1, plan, collector.apply)
	svc.Wait()
	require.Equal(t, 1, placeSvc.callCount())

	// Same title again: the cached photo answers before place resolution.
	plan2 := []*types.DailyPlan{{Day: 1, Date: "2025-10-04", Items: []*types.ItineraryItem{
		{ID: "y", Title: "Visit Louvre"},
	}}}
	svc.Enrich(context.Background(), 2, plan2, collector.apply)
	svc.Wait()

	assert.Equal(t, 1, placeSvc.callCount())
	assert.Equal(t, 2, collector.len())
}

func TestEnrich_CancelledContextStopsLaunching(t *testing.T) {
	placeSvc := &failingPlaceService{}
	svc, _ := newDegradedService(placeSvc)
	collector := &patchCollector{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		svc.Enrich(ctx, 1, testPlan(), collector.apply)
		svc.Wait()
	})
}
