package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/domain/repository"
	"github.com/AnuragPathakTDL/ContentService/internal/usecase"
)

const cacheHeader = "X-Cache"

// Trending reads are bounded so a caller-supplied limit cannot drive an
// unbounded ranked-set scan.
const (
	defaultTrendingLimit = 20
	maxTrendingLimit     = 100
)

// CatalogProvider is the orchestrator surface the HTTP layer depends on.
type CatalogProvider interface {
	GetFeed(ctx context.Context, q repository.FeedQuery) (*usecase.FeedResult, error)
	GetSeriesDetail(ctx context.Context, slug string) (*usecase.SeriesDetailResult, error)
	GetRelatedSeries(ctx context.Context, slug string, limit int) (*usecase.RelatedSeriesResult, error)
	ListCategories(ctx context.Context) (*usecase.CategoryListResult, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	TopTrending(ctx context.Context, limit int) ([]model.TrendingEntry, error)
	ApplyMetrics(ctx context.Context, events []model.MetricsEvent) error
	RegisterEpisodeAsset(ctx context.Context, actorID uuid.UUID, input repository.RegisterAssetInput) error
}

type CatalogHandler struct {
	provider CatalogProvider
}

func NewCatalogHandler(provider CatalogProvider) *CatalogHandler {
	return &CatalogHandler{provider: provider}
}

// RegisterRoutes mounts the viewer-facing and internal routes.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/feed", h.GetFeed)
	r.Get("/v1/series/{slug}", h.GetSeriesDetail)
	r.Get("/v1/series/{slug}/related", h.GetRelatedSeries)
	r.Get("/v1/categories", h.ListCategories)
	r.Get("/v1/categories/{id}", h.GetCategory)
	r.Get("/v1/trending", h.GetTrending)
	r.Post("/v1/internal/metrics", h.IngestMetrics)
	r.Post("/v1/internal/assets", h.RegisterAsset)
}

func (h *CatalogHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	query := repository.FeedQuery{
		Cursor:       r.URL.Query().Get("cursor"),
		CategorySlug: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		query.Limit = limit
	}

	result, err := h.provider.GetFeed(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}

	setCacheStatus(w, result.FromCache)
	JSON(w, http.StatusOK, result.Page)
}

type seriesDetailResponse struct {
	*model.SeriesDetail
	PlaybackURLs map[string]string `json:"playback_urls,omitempty"`
}

func (h *CatalogHandler) GetSeriesDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	result, err := h.provider.GetSeriesDetail(r.Context(), slug)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result == nil {
		Error(w, http.StatusNotFound, "series_not_found", "no series with slug "+slug)
		return
	}

	setCacheStatus(w, result.FromCache)
	JSON(w, http.StatusOK, seriesDetailResponse{
		SeriesDetail: result.Detail,
		PlaybackURLs: result.PlaybackURLs,
	})
}

type relatedSeriesResponse struct {
	Series []model.SeriesSummary `json:"series"`
}

func (h *CatalogHandler) GetRelatedSeries(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = n
	}

	result, err := h.provider.GetRelatedSeries(r.Context(), slug, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result == nil {
		Error(w, http.StatusNotFound, "series_not_found", "no series with slug "+slug)
		return
	}

	setCacheStatus(w, result.FromCache)
	JSON(w, http.StatusOK, relatedSeriesResponse{Series: result.Series})
}

type categoryListResponse struct {
	Categories []model.Category `json:"categories"`
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	result, err := h.provider.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	setCacheStatus(w, result.FromCache)
	JSON(w, http.StatusOK, categoryListResponse{Categories: result.Categories})
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_category_id", "category id must be a UUID")
		return
	}

	cat, err := h.provider.GetCategory(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if cat == nil {
		Error(w, http.StatusNotFound, "category_not_found", "no category with id "+id.String())
		return
	}

	JSON(w, http.StatusOK, cat)
}

type trendingResponse struct {
	Entries []model.TrendingEntry `json:"entries"`
}

func (h *CatalogHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	limit := defaultTrendingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	entries, err := h.provider.TopTrending(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	JSON(w, http.StatusOK, trendingResponse{Entries: entries})
}

type ingestMetricsRequest struct {
	Events []model.MetricsEvent `json:"events"`
}

func (h *CatalogHandler) IngestMetrics(w http.ResponseWriter, r *http.Request) {
	var req ingestMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if len(req.Events) == 0 {
		Error(w, http.StatusBadRequest, "empty_batch", "events must contain at least one entry")
		return
	}
	for _, event := range req.Events {
		if event.ContentID == uuid.Nil {
			Error(w, http.StatusBadRequest, "missing_content_id", "every event needs a content_id")
			return
		}
	}

	if err := h.provider.ApplyMetrics(r.Context(), req.Events); err != nil {
		h.writeError(w, err)
		return
	}

	JSON(w, http.StatusAccepted, map[string]int{"applied": len(req.Events)})
}

type registerAssetRequest struct {
	ActorID     uuid.UUID `json:"actor_id"`
	EpisodeID   uuid.UUID `json:"episode_id"`
	PlaybackKey string    `json:"playback_key"`
	DurationSec int       `json:"duration_seconds"`
}

func (h *CatalogHandler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	var req registerAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.EpisodeID == uuid.Nil || req.PlaybackKey == "" {
		Error(w, http.StatusBadRequest, "missing_fields", "episode_id and playback_key are required")
		return
	}

	err := h.provider.RegisterEpisodeAsset(r.Context(), req.ActorID, repository.RegisterAssetInput{
		EpisodeID:   req.EpisodeID,
		PlaybackKey: req.PlaybackKey,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]string{"episode_id": req.EpisodeID.String()})
}

// writeError maps domain errors onto HTTP statuses. Consistency violations
// surface the issue kind so operators can triage from the response alone.
func (h *CatalogHandler) writeError(w http.ResponseWriter, err error) {
	var cerr *model.ConsistencyError
	switch {
	case errors.As(err, &cerr):
		Error(w, http.StatusInternalServerError, string(cerr.Issue.Kind), cerr.Issue.Detail)
	case errors.Is(err, repository.ErrInvalidCursor):
		Error(w, http.StatusBadRequest, "invalid_cursor", "cursor is not a valid pagination token")
	case errors.Is(err, repository.ErrEpisodeNotFound):
		Error(w, http.StatusNotFound, "episode_not_found", err.Error())
	case errors.Is(err, repository.ErrAssetAlreadyRegistered):
		Error(w, http.StatusConflict, "asset_already_registered", err.Error())
	case errors.Is(err, repository.ErrAssetNotUploaded):
		Error(w, http.StatusPreconditionFailed, "asset_not_uploaded", err.Error())
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func setCacheStatus(w http.ResponseWriter, fromCache bool) {
	if fromCache {
		w.Header().Set(cacheHeader, "HIT")
		return
	}
	w.Header().Set(cacheHeader, "MISS")
}
