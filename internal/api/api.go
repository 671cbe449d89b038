// Package api maps the report service onto HTTP with gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jorge-barreto/reportd/internal/progress"
	"github.com/jorge-barreto/reportd/internal/service"
	"github.com/jorge-barreto/reportd/internal/store"
)

// Backend is what the handlers need from the service layer.
type Backend interface {
	StartAsync() (string, error)
	Progress(sessionID string) (progress.Data, bool)
	CreateManualReport(ctx context.Context) (int64, error)
	SchedulerStatus() service.SchedulerStatus
	LatestReport(ctx context.Context) (*store.Report, error)
	Report(ctx context.Context, id int64) (*store.Report, error)
}

type handler struct {
	b Backend
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(b Backend, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(recovery(), accessLog(), corsHandler(corsOrigins))

	h := &handler{b: b}
	r.GET("/health", h.health)

	reports := r.Group("/api/reports")
	reports.POST("/generate", h.generate)
	reports.GET("/progress/:session_id", h.progress)
	reports.POST("/manual", h.manual)
	reports.GET("/scheduler-status", h.schedulerStatus)
	reports.GET("/latest", h.latest)
	reports.GET("/:id", h.report)
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *handler) generate(c *gin.Context) {
	id, err := h.b.StartAsync()
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, service.ErrNoCredential) {
			code = http.StatusBadRequest
		}
		c.JSON(code, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Report generation started, poll the progress endpoint",
		"session_id": id,
	})
}

type progressResponse struct {
	progress.Data
	Percentage int `json:"percentage"`
}

func (h *handler) progress(c *gin.Context) {
	d, ok := h.b.Progress(c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, progressResponse{Data: d, Percentage: d.Percentage()})
}

func (h *handler) manual(c *gin.Context) {
	id, err := h.b.CreateManualReport(c.Request.Context())
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrNoCredential):
			code = http.StatusBadRequest
		case errors.Is(err, service.ErrRateLimited):
			code = http.StatusTooManyRequests
		}
		c.JSON(code, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Report #%d created", id),
		"report_id": id,
	})
}

func (h *handler) schedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.b.SchedulerStatus())
}

type reportSummary struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	HasHTML    bool      `json:"has_html"`
	HasCSS     bool      `json:"has_css"`
	HasJS      bool      `json:"has_js"`
	HasEnglish bool      `json:"has_english"`
}

func summarize(r *store.Report) reportSummary {
	return reportSummary{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		HasHTML:    r.HTML != "",
		HasCSS:     r.CSS != "",
		HasJS:      r.JS != "",
		HasEnglish: r.HTMLEn != "",
	}
}

func (h *handler) latest(c *gin.Context) {
	r, err := h.b.LatestReport(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "No reports found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": summarize(r)})
}

func (h *handler) report(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid report id"})
		return
	}
	r, err := h.b.Report(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "Report not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": r})
}

func (h *handler) storeError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": notFound})
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("report lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}

// Serve runs the HTTP server until ctx is done, then shuts it down within
// grace.
func Serve(ctx context.Context, addr string, h http.Handler, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
