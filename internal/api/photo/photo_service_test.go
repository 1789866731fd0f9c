package photo

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/cache"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

// MockVenueProvider is a mock implementation of VenuePhotoProvider
type MockVenueProvider struct {
	mock.Mock
}

func (m *MockVenueProvider) Name() string { return "venue" }

func (m *MockVenueProvider) PhotoNear(ctx context.Context, lat, lng float64, query string) (*types.Photo, error) {
	args := m.Called(ctx, lat, lng, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Photo), args.Error(1)
}

// MockStockProvider is a mock implementation of StockPhotoProvider
type MockStockProvider struct {
	mock.Mock
}

func (m *MockStockProvider) Name() string { return "stock" }

func (m *MockStockProvider) Search(ctx context.Context, term string) (*types.Photo, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Photo), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(venue VenuePhotoProvider, stock StockPhotoProvider) (*ServiceImpl, *cache.EnrichmentCache) {
	c := cache.NewEnrichmentCache(time.Hour, time.Hour, 100, nil, testLogger())
	placeholder := NewPicsumPlaceholder("https://picsum.photos")
	return NewService(venue, stock, placeholder, c, testLogger()), c
}

func eiffel() *types.ResolvedPlace {
	return &types.ResolvedPlace{PlaceID: "osm:1", Latitude: 48.8584, Longitude: 2.2945}
}

func TestResolvePhoto_VenueTierWins(t *testing.T) {
	venue := &MockVenueProvider{}
	stock := &MockStockProvider{}
	svc, _ := newTestService(venue, stock)

	want := &types.Photo{URL: "https://cdn.example.com/v.jpg", ThumbURL: "https://cdn.example.com/v_t.jpg", Source: "venue"}
	venue.On("PhotoNear", mock.Anything, 48.8584, 2.2945, "Eiffel Tower").Return(want, nil)

	got := svc.ResolvePhoto(context.Background(), "Eiffel Tower", eiffel(), nil)
	require.NotNil(t, got)
	assert.Equal(t, want.URL, got.URL)
	stock.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestResolvePhoto_StockFallbackUsesDerivedTerms(t *testing.T) {
	venue := &MockVenueProvider{}
	stock := &MockStockProvider{}
	svc, _ := newTestService(venue, stock)

	venue.On("PhotoNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	want := &types.Photo{URL: "https://stock.example.com/p.jpg", Source: "stock"}
	stock.On("Search", mock.Anything, "landmark Paris").Return(want, nil)

	got := svc.ResolvePhoto(context.Background(), "Eiffel Tower", eiffel(), &types.PlaceHints{City: "Paris"})
	require.NotNil(t, got)
	assert.Equal(t, want.URL, got.URL)

	// Second call is served from the cache without another provider call.
	again := svc.ResolvePhoto(context.Background(), "Eiffel Tower", eiffel(), &types.PlaceHints{City: "Paris"})
	assert.Equal(t, want.URL, again.URL)
	stock.AssertNumberOfCalls(t, "Search", 1)
	venue.AssertNumberOfCalls(t, "PhotoNear", 1)
}

func TestResolvePhoto_CacheShortCircuits(t *testing.T) {
	venue := &MockVenueProvider{}
	stock := &MockStockProvider{}
	svc, c := newTestService(venue, stock)

	c.Set(context.Background(), cache.NormalizeKey("Eiffel  Tower"), cache.Entry{URL: "https://cached.example.com/x.jpg"})

	got := svc.ResolvePhoto(context.Background(), "eiffel tower", eiffel(), nil)
	assert.Equal(t, "https://cached.example.com/x.jpg", got.URL)
	venue.AssertNotCalled(t, "PhotoNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stock.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestResolvePhoto_AllProvidersFailYieldsPlaceholder(t *testing.T) {
	venue := &MockVenueProvider{}
	stock := &MockStockProvider{}
	svc, _ := newTestService(venue, stock)

	venue.On("PhotoNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	stock.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	got := svc.ResolvePhoto(context.Background(), "Eiffel Tower", eiffel(), &types.PlaceHints{City: "Paris", Country: "France"})
	require.NotNil(t, got)
	assert.True(t, svc.IsPlaceholder(got.URL))

	// Deterministic: same title, same placeholder.
	svc2, _ := newTestService(venue, stock)
	again := svc2.ResolvePhoto(context.Background(), "Eiffel Tower", nil, nil)
	assert.Equal(t, got.URL, again.URL)
}

func TestResolvePhoto_NoCoordinatesSkipsVenueTier(t *testing.T) {
	venue := &MockVenueProvider{}
	stock := &MockStockProvider{}
	svc, _ := newTestService(venue, stock)

	want := &types.Photo{URL: "https://stock.example.com/q.jpg", Source: "stock"}
	stock.On("Search", mock.Anything, "Eiffel Tower").Return(want, nil)

	got := svc.ResolvePhoto(context.Background(), "Eiffel Tower", nil, nil)
	assert.Equal(t, want.URL, got.URL)
	venue.AssertNotCalled(t, "PhotoNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchTerms(t *testing.T) {
	terms := searchTerms("Eiffel Tower", &types.PlaceHints{City: "Paris", Country: "France"})
	assert.Equal(t, []string{"landmark Paris", "landmark France", "Paris", "Eiffel Tower"}, terms)

	terms = searchTerms("Mystery spot", &types.PlaceHints{City: "Lisbon"})
	assert.Equal(t, []string{"Lisbon", "Mystery spot"}, terms)

	terms = searchTerms("Dinner cruise", nil)
	assert.Equal(t, []string{"Dinner cruise"}, terms)
}

func TestInferVenueType(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Seafood restaurant", "restaurant"},
		{"Louvre Museum", "museum"},
		{"Copacabana Beach", "beach"},
		{"Hotel Lisboa", "hotel"},
		{"Charles Bridge", "landmark"},
		{"Something else", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferVenueType(tt.query), "query %q", tt.query)
	}
}

func TestPicsumPlaceholder_Deterministic(t *testing.T) {
	p := NewPicsumPlaceholder("https://picsum.photos")

	a := p.Placeholder("Eiffel Tower")
	b := p.Placeholder("eiffel tower")
	c := p.Placeholder("Louvre")

	assert.Equal(t, a.URL, b.URL)
	assert.NotEqual(t, a.URL, c.URL)
	assert.True(t, p.IsPlaceholder(a.URL))
	assert.False(t, p.IsPlaceholder("https://cdn.example.com/real.jpg"))
	assert.False(t, p.IsPlaceholder(""))
}
