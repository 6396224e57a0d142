package httpapi

import (
	"context"
	"net/http"

	"course_trigger_engine/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Runner triggers passes and remembers the last one.
type Runner interface {
	Run(ctx context.Context) (app.RunSummary, error)
	LastRun() (app.RunSummary, bool)
}

type Handler struct {
	runner       Runner
	gatherer     prometheus.Gatherer
	triggerToken string
	log          *logrus.Entry

	Mux *chi.Mux
}

func NewHandler(runner Runner, gatherer prometheus.Gatherer, triggerToken string, logger *logrus.Entry) *Handler {
	h := &Handler{
		runner:       runner,
		gatherer:     gatherer,
		triggerToken: triggerToken,
		log:          logger.WithField("component", "http"),
		Mux:          chi.NewRouter(),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(middleware.Recoverer)

	h.Mux.Get("/healthz", h.Health)
	if h.gatherer != nil {
		h.Mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	h.Mux.Route("/v1/trigger", func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/run", h.TriggerRun)
		r.Get("/last-run", h.GetLastRun)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, Response{Success: true, Message: "ok"})
}

// TriggerRun executes one pass synchronously and returns its summary.
// A client disconnect does not cut the pass short.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		h.log.WithError(err).WithField("run_id", summary.RunID).Error("Triggered run aborted")
		h.writeJSON(w, r, http.StatusInternalServerError, Response{
			Success: false,
			Message: err.Error(),
			Data:    summary,
		})
		return
	}
	h.writeJSON(w, r, http.StatusOK, Response{Success: true, Message: "run completed", Data: summary})
}

func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.runner.LastRun()
	if !ok {
		h.writeJSON(w, r, http.StatusNotFound, Response{Success: false, Message: "no run recorded yet"})
		return
	}
	h.writeJSON(w, r, http.StatusOK, Response{Success: true, Message: "last run", Data: summary})
}
