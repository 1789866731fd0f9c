package itinerary

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api/enrich"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// Enricher launches background enrichment for a freshly normalized plan.
type Enricher interface {
	Enrich(ctx context.Context, generation uint64, days []*types.DailyPlan, apply enrich.Applier)
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service runs the extract -> normalize pipeline over assistant text and
// owns the current in-memory itinerary, which a normalization pass replaces
// wholesale.
type Service interface {
	ProcessMessage(ctx context.Context, rawText string) (*types.Itinerary, bool)
	Current() *types.Itinerary
}

type ServiceImpl struct {
	logger   *slog.Logger
	enricher Enricher
	now      func() time.Time

	mu         sync.RWMutex
	current    *types.Itinerary
	generation uint64
}

func NewService(enricher Enricher, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		enricher: enricher,
		now:      time.Now,
	}
}

// ProcessMessage extracts and normalizes an itinerary from raw assistant
// text. The returned itinerary is complete and renderable before any
// enrichment starts; enrichment runs in the background and patches the
// current itinerary as results arrive. A false return means the text
// carried no itinerary and state was left untouched.
func (s *ServiceImpl) ProcessMessage(ctx context.Context, rawText string) (*types.Itinerary, bool) {
	raw := Extract(rawText)
	if raw == nil {
		s.logger.DebugContext(ctx, "No itinerary found in assistant text")
		return nil, false
	}
	days := Normalize(raw, s.now)

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.current = &types.Itinerary{Days: days}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Itinerary normalized",
		slog.Int("days", len(days)), slog.Uint64("generation", generation))

	// Fire-and-forget: enrichment must never delay the initial render, and
	// must outlive the request that delivered the text.
	go s.enricher.Enrich(context.WithoutCancel(ctx), generation, days, s.applyPatch)

	return s.snapshot(), true
}

// Current returns a copy of the current itinerary, possibly partially
// enriched, or nil when no itinerary has been extracted yet.
func (s *ServiceImpl) Current() *types.Itinerary {
	return s.snapshot()
}

func (s *ServiceImpl) snapshot() *types.Itinerary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	days := make([]*types.DailyPlan, len(s.current.Days))
	for i, day := range s.current.Days {
		items := make([]*types.ItineraryItem, len(day.Items))
		for j, item := range day.Items {
			copied := *item
			items[j] = &copied
		}
		days[i] = &types.DailyPlan{Day: day.Day, Date: day.Date, Items: items}
	}
	return &types.Itinerary{Days: days}
}

// applyPatch applies one enrichment result to the current itinerary by id
// lookup. Patches computed for a discarded itinerary generation are
// dropped, so stale tasks can finish harmlessly. Fields are monotonic:
// empty patch fields leave existing values alone.
func (s *ServiceImpl) applyPatch(generation uint64, patch types.ItemPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.current == nil {
		s.logger.Debug("Discarding enrichment patch for stale itinerary",
			slog.Uint64("patch_generation", generation), slog.String("itemID", patch.ItemID))
		return
	}

	item := findItem(s.current, patch.ItemID)
	if item == nil {
		return
	}

	if patch.ImageURL != "" {
		item.ImageURL = patch.ImageURL
	}
	if patch.ThumbURL != "" {
		item.ThumbURL = patch.ThumbURL
	}
	if patch.PhotoReference != "" {
		item.PhotoReference = patch.PhotoReference
	}
	if patch.Rating > 0 {
		item.Rating = patch.Rating
	}
	if len(patch.Reviews) > 0 {
		item.Reviews = patch.Reviews
	}
	if patch.Description != "" && item.Description == "" {
		item.Description = patch.Description
	}
	if patch.BookingURL != "" {
		item.BookingURL = patch.BookingURL
	}
	if patch.PlaceID != "" {
		item.PlaceID = patch.PlaceID
	}
}

func findItem(itinerary *types.Itinerary, itemID string) *types.ItineraryItem {
	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			if item.ID == itemID {
				return item
			}
		}
	}
	return nil
}
