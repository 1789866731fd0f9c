package itinerary

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api"
)

type Handler struct {
	itineraryService Service
	logger           *slog.Logger
}

func NewHandler(itineraryService Service, logger *slog.Logger) *Handler {
	return &Handler{
		itineraryService: itineraryService,
		logger:           logger,
	}
}

type processMessageRequest struct {
	Message string `json:"message"`
}

type processMessageResponse struct {
	Success   bool `json:"success"`
	Itinerary any  `json:"itinerary"`
}

// ProcessMessage ingests one raw assistant message. When the message
// carries an itinerary, the normalized (not yet enriched) result is
// returned immediately; otherwise itinerary is null and state is
// unchanged.
func (h *Handler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProcessMessage").Start(r.Context(), "ProcessMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itinerary/message"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ProcessMessage"))
	l.DebugContext(ctx, "Process message handler invoked")

	var req processMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Message is required")
		return
	}

	itinerary, found := h.itineraryService.ProcessMessage(ctx, req.Message)
	resp := processMessageResponse{Success: true}
	if found {
		resp.Itinerary = itinerary
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// GetItinerary returns the current itinerary, possibly partially enriched.
func (h *Handler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GetItinerary").Start(r.Context(), "GetItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itinerary"),
	))
	defer span.End()

	itinerary := h.itineraryService.Current()
	if itinerary == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "No itinerary yet")
		return
	}
	h.logger.DebugContext(ctx, "Returning current itinerary", slog.Int("days", len(itinerary.Days)))
	api.WriteJSONResponse(w, r, http.StatusOK, itinerary)
}
