package reports_api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/BearBump/ScoreBox/internal/cache"
	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/render/xlsxreport"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/BearBump/ScoreBox/internal/services/reports"
	"github.com/BearBump/ScoreBox/internal/storage/pgreports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Service interface {
	Generate(ctx context.Context, carrier string, weeks []models.WeekKey) (*reports.Generated, error)
	GenerateAll(ctx context.Context, weeks []models.WeekKey) ([]*reports.Generated, error)
	ListCarriers(ctx context.Context) ([]string, error)
	ActiveCarriers(ctx context.Context) ([]models.CarrierActivity, error)
	History(ctx context.Context, carrier string, limit int) ([]pgreports.ArchivedWeek, error)
	ArchivedReport(ctx context.Context, reportID string) (*scorecard.Report, error)
	CurrentYear() int
}

type Options struct {
	// bcrypt hash for HTTP basic auth; empty disables the gate
	PasswordHash       string
	RateLimitPerMinute int
	Targets            scorecard.Targets
}

type ReportsAPI struct {
	svc      Service
	limiter  cache.Limiter
	log      *zap.Logger
	opts     Options
	validate *validator.Validate
}

func New(svc Service, limiter cache.Limiter, log *zap.Logger, opts Options) *ReportsAPI {
	if log == nil {
		log = zap.NewNop()
	}
	opts.Targets = opts.Targets.OrDefault()
	return &ReportsAPI{
		svc:      svc,
		limiter:  limiter,
		log:      log,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *ReportsAPI) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(a.passwordGate)

		r.Get("/carriers", a.listCarriers)
		r.Get("/carriers/active", a.activeCarriers)
		r.Get("/carriers/{carrier}/history", a.history)
		r.Get("/archive/{id}", a.archived)
		r.Get("/archive/{id}/xlsx", a.archivedXLSX)

		r.With(a.rateLimit).Get("/reports", a.getReport)
		r.With(a.rateLimit).Get("/reports/xlsx", a.getReportXLSX)
	})
	return r
}

type reportQuery struct {
	Carrier string   `validate:"required,max=255"`
	Weeks   []string `validate:"max=53,dive,required"`
}

func (a *ReportsAPI) parseReportQuery(r *http.Request) (string, []models.WeekKey, error) {
	q := reportQuery{Carrier: strings.TrimSpace(r.URL.Query().Get("carrier"))}
	for _, v := range r.URL.Query()["weeks"] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				q.Weeks = append(q.Weeks, p)
			}
		}
	}
	if err := a.validate.Struct(q); err != nil {
		return "", nil, errors.Wrapf(reports.ErrInvalidRequest, "%v", err)
	}
	weeks, err := models.ParseWeekKeys(q.Weeks, a.svc.CurrentYear())
	if err != nil {
		return "", nil, errors.Wrapf(reports.ErrInvalidRequest, "%v", err)
	}
	return q.Carrier, weeks, nil
}

func (a *ReportsAPI) getReport(w http.ResponseWriter, r *http.Request) {
	carrier, weeks, err := a.parseReportQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if models.IsAllCarriers(carrier) {
		gs, err := a.svc.GenerateAll(r.Context(), weeks)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": gs})
		return
	}

	g, err := a.svc.Generate(r.Context(), carrier, weeks)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *ReportsAPI) getReportXLSX(w http.ResponseWriter, r *http.Request) {
	carrier, weeks, err := a.parseReportQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if models.IsAllCarriers(carrier) {
		a.writeError(w, r, errors.Wrap(reports.ErrInvalidRequest, "workbook is built per carrier"))
		return
	}

	g, err := a.svc.Generate(r.Context(), carrier, weeks)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeWorkbook(w, r, g.Report)
}

func (a *ReportsAPI) archived(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.ArchivedReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *ReportsAPI) archivedXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.ArchivedReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeWorkbook(w, r, rep)
}

func (a *ReportsAPI) writeWorkbook(w http.ResponseWriter, r *http.Request, rep *scorecard.Report) {
	f, err := xlsxreport.Render(rep, a.opts.Targets)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxreport.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+xlsxreport.FileName(rep.Carrier)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		a.log.Warn("write workbook failed", zap.Error(err))
	}
}

func (a *ReportsAPI) listCarriers(w http.ResponseWriter, r *http.Request) {
	names, err := a.svc.ListCarriers(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": names})
}

func (a *ReportsAPI) activeCarriers(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.ActiveCarriers(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": out})
}

func (a *ReportsAPI) history(w http.ResponseWriter, r *http.Request) {
	carrier := chi.URLParam(r, "carrier")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.writeError(w, r, errors.Wrapf(reports.ErrInvalidRequest, "invalid limit %q", v))
			return
		}
		limit = n
	}
	out, err := a.svc.History(r.Context(), carrier, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carrier": carrier, "weeks": out})
}

type errorBody struct {
	Error             string   `json:"error"`
	Kind              string   `json:"kind"`
	AvailableCarriers []string `json:"availableCarriers,omitempty"`
}

func (a *ReportsAPI) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error(), Kind: reports.ErrorKind(err)}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, scorecard.ErrCarrierNotFound):
		status = http.StatusNotFound
		// подсказка клиенту: список известных перевозчиков
		if names, lerr := a.svc.ListCarriers(r.Context()); lerr == nil {
			body.AvailableCarriers = names
		}
	case errors.Is(err, pgreports.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scorecard.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, reports.ErrInvalidRequest), errors.Is(err, scorecard.ErrNoWeeks):
		status = http.StatusBadRequest
	case errors.Is(err, reports.ErrArchiveDisabled):
		status = http.StatusNotImplemented
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}

	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
