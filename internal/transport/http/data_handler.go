package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "solarcli/internal/errors"
	"solarcli/internal/services"
)

// DataHandler serves the dashboard's dataset and comparison endpoints.
type DataHandler struct {
	service      DataServiceInterface
	cleaner      CleanServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate

	maxUploadBytes int64
}

// NewDataHandler creates a data handler.
func NewDataHandler(service DataServiceInterface, cleaner CleanServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:        service,
		cleaner:        cleaner,
		logger:         logger.With(slog.String("component", "data_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the data API routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/datasets", h.GetDatasets)
	r.Get("/kpis", h.GetKPIs)
	r.Get("/summary", h.GetSummary)
	r.Get("/compare", h.GetCompare)
	r.Get("/top-regions", h.GetTopRegions)
	r.Get("/insights", h.GetInsights)
	r.Get("/distribution/{metric}", h.GetDistribution)
	r.Get("/download/summary.csv", h.DownloadSummary)
	r.Get("/download/datasets/{file}", h.DownloadDataset)

	r.Route("/datasets/{country}", func(r chi.Router) {
		r.Use(h.CountryCtx)
		r.Post("/", h.UploadDataset)
		r.Get("/series", h.GetSeries)
	})

	return r
}

// CountryCtx validates the country URL parameter.
func (h *DataHandler) CountryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		country := chi.URLParam(r, "country")
		if err := h.validate.Var(country, "required,alphanum,min=2,max=32"); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("country", "country must be a short alphanumeric name"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetDatasets handles GET /api/datasets.
func (h *DataHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Infos())
}

// GetKPIs handles GET /api/kpis.
func (h *DataHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.KPIs())
}

// summaryQuery holds the parsed GET /api/summary parameters.
type summaryQuery struct {
	Metrics   []string `validate:"max=16,dive,alphanum,max=32"`
	Countries []string `validate:"max=16,dive,alphanum,max=32"`
}

// GetSummary handles GET /api/summary?metrics=GHI,DNI&countries=benin,togo.
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := summaryQuery{
		Metrics:   splitParam(r.URL.Query().Get("metrics")),
		Countries: splitParam(r.URL.Query().Get("countries")),
	}
	if err := h.validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("metrics", "invalid metrics or countries selection"))
		return
	}
	render.JSON(w, r, h.service.Summary(q.Metrics, q.Countries))
}

// GetCompare handles GET /api/compare.
func (h *DataHandler) GetCompare(w http.ResponseWriter, r *http.Request) {
	countries := splitParam(r.URL.Query().Get("countries"))
	render.JSON(w, r, h.service.Compare(countries...))
}

// GetTopRegions handles GET /api/top-regions?metric=GHI&n=10.
func (h *DataHandler) GetTopRegions(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "GHI"
	}
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "n must be between 1 and 100"))
			return
		}
		n = parsed
	}
	render.JSON(w, r, h.service.TopRegions(metric, n))
}

// GetInsights handles GET /api/insights.
func (h *DataHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Insights())
}

// GetDistribution handles GET /api/distribution/{metric}.
func (h *DataHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	if err := h.validate.Var(metric, "required,alphanum,max=32"); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("metric", "invalid metric name"))
		return
	}
	render.JSON(w, r, h.service.Distributions(metric))
}

// GetSeries handles GET /api/datasets/{country}/series.
func (h *DataHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "GHI"
	}
	if err := h.validate.Var(metric, "required,alphanum,max=32"); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("metric", "invalid metric name"))
		return
	}

	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("from", err.Error()))
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("to", err.Error()))
		return
	}

	points := 500
	if raw := r.URL.Query().Get("points"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 10000 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("points", "points must be between 1 and 10000"))
			return
		}
		points = parsed
	}

	series, err := h.service.Series(r.Context(), country, metric, from, to, points)
	if err != nil {
		if errors.Is(err, services.ErrMetricNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("metric", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.DatasetNotFoundError(country))
		return
	}
	render.JSON(w, r, series)
}

// UploadDataset handles POST /api/datasets/{country}: a raw CSV body is
// cleaned, persisted and becomes the country's dataset.
func (h *DataHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	country := strings.ToLower(chi.URLParam(r, "country"))
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "dataset upload started",
		slog.String("request_id", reqID),
		slog.String("country", country))

	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	report, err := h.cleaner.CleanUpload(r.Context(), country, body)
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.CleaningError(country, err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// DownloadSummary handles GET /api/download/summary.csv.
func (h *DataHandler) DownloadSummary(w http.ResponseWriter, r *http.Request) {
	summaries := h.service.Compare()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="comparison_summary.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Country", "GHIMean", "GHIMedian", "WSMean", "PrecipMean", "Observations"})
	for _, s := range summaries {
		cw.Write([]string{
			s.Country,
			csvFloat(float64(s.GHIMean)),
			csvFloat(float64(s.GHIMedian)),
			csvFloat(float64(s.WSMean)),
			csvFloat(float64(s.PrecipMean)),
			strconv.Itoa(s.Observations),
		})
	}
	cw.Flush()
}

// DownloadDataset handles GET /api/download/datasets/{file}: streams a
// cleaned CSV back to the browser.
func (h *DataHandler) DownloadDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	path, err := h.service.ResolveDownload(name)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.DatasetNotFoundError(name))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
		return
	}

	contentType := "text/csv; charset=utf-8"
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		contentType = "application/gzip"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", raw)
}
