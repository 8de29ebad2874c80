// =============================================================================
// Inventory Matcher - HTTP Service
// =============================================================================
//
// This module exposes reconciliation over HTTP.
//
// ENDPOINTS:
//   GET  /health          liveness probe
//   POST /api/reconcile   multipart upload of "target" and "source" files
//
// RECONCILE REQUEST:
//   Form fields (all optional) override the matching settings for this
//   request only: date_matching, date_tolerance, tolerance_days, fallback,
//   uppercase, source_date, output_format.
//   The response is the enriched export as a download, or a JSON body with
//   the summary and per-row results when the query has format=json.
//
// Every request loads its own tables and runs with its own candidate pool,
// so concurrent requests never share matching state.
//
// =============================================================================

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/exporter"
	"github.com/ginjaninja78/inventory-matcher/internal/loader"
	"github.com/ginjaninja78/inventory-matcher/internal/reconcile"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
	"github.com/ginjaninja78/inventory-matcher/pkg/utils"
)

// =============================================================================
// SERVER
// =============================================================================

// Server is the HTTP surface of the matcher.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates a server and registers its routes.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.With("component", "api"),
		router: gin.New(),
	}

	s.router.Use(recovery(s.logger), requestID(), requestLogger(s.logger),
		corsMiddleware(cfg.Server.AllowedOrigins), compression())

	s.router.GET("/health", s.health)

	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSecond), max(cfg.Server.Burst, 1))
	api := s.router.Group("/api", rateLimit(limiter))
	{
		api.POST("/reconcile", s.reconcile)
	}

	return s
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured port until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// reconcileResponse is the JSON body of a reconcile request.
type reconcileResponse struct {
	Summary  reconcile.Summary     `json:"summary"`
	Rows     []reconcile.RowResult `json:"rows"`
	Warnings []string              `json:"warnings"`
}

func (s *Server) reconcile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadMB<<20)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "upload exceeds the size limit")
			return
		}
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, "expected a multipart form with target and source files")
		return
	}

	cfg := s.cfg.Clone()

	overrides, err := formOverrides(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := cfg.Apply(overrides); err != nil {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	target, ok := s.loadUpload(c, "target", cfg.Input)
	if !ok {
		return
	}
	source, ok := s.loadUpload(c, "source", cfg.Input)
	if !ok {
		return
	}

	logger := s.logger.With("request_id", c.GetString(requestIDKey))
	r, err := reconcile.New(cfg, logger, nil)
	if err != nil {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	result, err := r.Run(c.Request.Context(), target, source)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.Abort()
			return
		}
		writeRunError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "json") {
		resp := reconcileResponse{
			Summary:  result.Summary,
			Rows:     result.Rows,
			Warnings: []string{},
		}
		for _, w := range result.Validation.Errors {
			resp.Warnings = append(resp.Warnings, w.Error())
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	opts := exporter.OptionsFromConfig(cfg.Output)
	var buf bytes.Buffer
	if err := exporter.Write(&buf, result.Table, opts); err != nil {
		writeRunError(c, fmt.Errorf("failed to render export: %w", err))
		return
	}

	name := strings.TrimSuffix(target.Name, filepath.Ext(target.Name))
	fileName := utils.GenerateOutputFileName(cfg.Output.FileNameFormat, name, opts.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, opts.ContentType(), buf.Bytes())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadUpload parses one uploaded file. On failure the response is written
// and false is returned.
func (s *Server) loadUpload(c *gin.Context, field string, settings config.InputSettings) (*table.Table, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("missing file field %q", field))
		return nil, false
	}

	t, err := openUpload(header, settings)
	if err != nil {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("%s: %v", field, err))
		return nil, false
	}
	return t, true
}

func openUpload(header *multipart.FileHeader, settings config.InputSettings) (*table.Table, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return loader.LoadReader(f, header.Filename, settings)
}

// formOverrides reads the optional matching overrides from the form.
func formOverrides(c *gin.Context) (config.Overrides, error) {
	var o config.Overrides

	switch v := strings.ToLower(c.PostForm("date_matching")); v {
	case "", config.DateMatchingEnabled:
	case config.DateMatchingDisabled:
		o.DisableDate = true
	default:
		return o, fmt.Errorf("date_matching: unknown value %q", v)
	}

	switch v := strings.ToLower(c.PostForm("date_tolerance")); v {
	case "", config.DateToleranceDays:
	case config.DateToleranceExact:
		o.ExactDate = true
	default:
		return o, fmt.Errorf("date_tolerance: unknown value %q", v)
	}

	if v := c.PostForm("tolerance_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("tolerance_days: %w", err)
		}
		o.ToleranceDays = &days
	}

	var err error
	if o.Fallback, err = formBool(c, "fallback"); err != nil {
		return o, err
	}
	if o.Uppercase, err = formBool(c, "uppercase"); err != nil {
		return o, err
	}

	o.SourceDate = c.PostForm("source_date")
	o.Format = c.PostForm("output_format")
	return o, nil
}

func formBool(c *gin.Context, field string) (*bool, error) {
	v := c.PostForm(field)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &b, nil
}
