package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/photo"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/place"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// Applier receives one finished enrichment patch together with the
// itinerary generation it was computed for. The owner of the current
// itinerary applies it by id lookup and drops patches from stale
// generations.
type Applier func(generation uint64, patch types.ItemPatch)

// Service walks a normalized itinerary and fills in photos and place
// metadata item by item. Items enrich independently; completion order is
// unspecified and partial completion is a valid intermediate state.
type Service struct {
	logger   *slog.Logger
	placeSvc place.Service
	photoSvc photo.Service
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
}

func NewService(placeSvc place.Service, photoSvc photo.Service, maxConcurrent int64, logger *slog.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Service{
		logger:   logger,
		placeSvc: placeSvc,
		photoSvc: photoSvc,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
}

// Enrich schedules one task per item that still needs imagery. It returns
// once all tasks are launched; callers render immediately and pick up
// patches as they apply. Re-running on an already-enriched plan is a no-op.
func (s *Service) Enrich(ctx context.Context, generation uint64, days []*types.DailyPlan, apply Applier) {
	for _, day := range days {
		for _, item := range day.Items {
			if s.alreadyEnriched(item) {
				continue
			}
			task := enrichTask{
				itemID:  item.ID,
				title:   item.Title,
				city:    item.City,
				country: item.Country,
			}

			if err := s.sem.Acquire(ctx, 1); err != nil {
				// Context cancelled mid-launch; remaining items keep their
				// placeholders until the next pass.
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.sem.Release(1)
				patch := s.enrichItem(ctx, task)
				apply(generation, patch)
			}()
		}
	}
}

// Wait blocks until all in-flight enrichment tasks finish. Used during
// graceful shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// alreadyEnriched is the idempotence guard: a real (non-placeholder) image
// means the item is done and costs no further provider calls.
func (s *Service) alreadyEnriched(item *types.ItineraryItem) bool {
	if item.ImageURL != "" && !s.photoSvc.IsPlaceholder(item.ImageURL) {
		return true
	}
	if item.ThumbURL != "" && !s.photoSvc.IsPlaceholder(item.ThumbURL) {
		return true
	}
	return false
}

type enrichTask struct {
	itemID  string
	title   string
	city    string
	country string
}

func (s *Service) enrichItem(ctx context.Context, task enrichTask) types.ItemPatch {
	ctx, span := otel.Tracer("EnrichmentOrchestrator").Start(ctx, "EnrichItem", trace.WithAttributes(
		attribute.String("item.id", task.itemID),
		attribute.String("item.title", task.title),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().EnrichmentTasksTotal.Add(ctx, 1)
		metrics.Get().EnrichmentDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	l := s.logger.With(slog.String("service", "EnrichmentOrchestrator"), slog.String("itemID", task.itemID))

	query := place.CleanQuery(task.title)
	patch := types.ItemPatch{ItemID: task.itemID}

	// Cache first: a repeat title needs no place resolution at all.
	if cached, found := s.photoSvc.Cached(ctx, query); found {
		patch.ImageURL = cached.URL
		patch.ThumbURL = cached.ThumbURL
		patch.PhotoReference = cached.Reference
		return patch
	}

	hints := &types.PlaceHints{City: task.city, Country: task.country}
	resolved, err := s.placeSvc.ResolvePlace(ctx, task.title, hints)
	if err != nil {
		// Treated like a miss: the photo waterfall still runs on the bare
		// query and bottoms out at the placeholder.
		l.WarnContext(ctx, "Place resolution failed", slog.Any("error", err))
		resolved = nil
	}
	if resolved != nil {
		patch.PlaceID = resolved.PlaceID
		patch.Rating = resolved.Rating
		patch.Reviews = resolved.Reviews
		patch.BookingURL = resolved.BookingURL
		patch.Description = resolved.Description
	}

	result := s.photoSvc.ResolvePhoto(ctx, query, resolved, hints)
	patch.ImageURL = result.URL
	patch.ThumbURL = result.ThumbURL
	patch.PhotoReference = result.Reference

	l.DebugContext(ctx, "Item enriched", slog.String("source", result.Source))
	return patch
}
