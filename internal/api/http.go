package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/omerorhan/currency-service/internal/service"
	"github.com/omerorhan/currency-service/internal/storage"
)

// RateService is the part of the currency service exposed over HTTP.
type RateService interface {
	Rates(ctx context.Context) storage.RateTable
	GetCurrentRate(ctx context.Context, from, to string) (float64, error)
	Quote(ctx context.Context, req service.ConvertReq) (*service.ConvertResp, error)
	RefreshRates(ctx context.Context) service.RefreshResult
}

// ProblemDetails is an RFC 9457 error body.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

type RateResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type TableResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type handler struct {
	svc      RateService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRouter wires the admin endpoints.
func NewRouter(svc RateService, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{svc: svc, validate: validator.New(), logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rates", h.getRates)
		r.Post("/rates/refresh", h.refreshRates)
		r.Get("/convert", h.convert)
		r.Get("/currencies", h.currencies)
	})
	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getRates returns the whole table, or a single rate when from and to are given.
func (h *handler) getRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		table := h.svc.Rates(r.Context())
		writeJSON(w, http.StatusOK, TableResponse{Base: table.Base(), Rates: table.Rates()})
		return
	}

	req := service.RateReq{From: q.Get("from"), To: q.Get("to")}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	rate, err := h.svc.GetCurrentRate(r.Context(), req.From, req.To)
	if err != nil {
		writeProblem(w, r, errorToStatusCode(err), "Rate unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RateResponse{
		From: storage.NormalizeCode(req.From),
		To:   storage.NormalizeCode(req.To),
		Rate: rate,
	})
}

func (h *handler) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid amount", "amount must be a number")
		return
	}
	req := service.ConvertReq{Amount: amount, From: q.Get("from"), To: q.Get("to")}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	resp, err := h.svc.Quote(r.Context(), req)
	if err != nil {
		writeProblem(w, r, errorToStatusCode(err), "Conversion failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) refreshRates(w http.ResponseWriter, r *http.Request) {
	res := h.svc.RefreshRates(r.Context())
	if !res.Success {
		h.logger.Warn("⚠️ manual refresh fell back", zap.String("source", res.Source), zap.String("message", res.Message))
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) currencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, service.SupportedCurrencies())
}

// errorToStatusCode maps domain errors to HTTP status codes.
func errorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownCurrency):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.RequestURI(),
	})
}
