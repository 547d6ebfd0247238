package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rostermatch/internal"
	"rostermatch/internal/config"
	"rostermatch/internal/logger"
	"rostermatch/internal/pipeline"
)

const (
	baseField   = "file1"
	rosterField = "file2"

	shutdownTimeout = 10 * time.Second

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Server struct {
	cfg    config.Config
	log    *logger.Logger
	svc    *pipeline.ProcessingService
	router *gin.Engine

	writeXLSX func(internal.Report, io.Writer) error
}

func New(cfg config.Config, log *logger.Logger, svc *pipeline.ProcessingService, registry *prometheus.Registry) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	s := &Server{cfg: cfg, log: log.WithModule("server"), svc: svc, router: router, writeXLSX: pipeline.WriteReportXLSX}

	router.GET("/healthz", s.health)
	router.POST("/upload", s.limitBody(), s.upload)
	router.POST("/compare", s.limitBody(), s.compare)
	router.POST("/export", s.limitBody(), s.export)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.HTTPPort,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout() + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("port", s.cfg.HTTPPort).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// upload reports the shape of each posted file without comparing them.
func (s *Server) upload(c *gin.Context) {
	infos := gin.H{}
	for _, field := range []string{baseField, rosterField} {
		in, err := readFormFile(c, field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			s.badForm(c, err)
			return
		}
		info, err := s.svc.InspectFile(in)
		if err != nil {
			s.fail(c, err)
			return
		}
		infos[field] = info
	}
	if len(infos) == 0 {
		s.fail(c, pipeline.ErrMissingInput)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "files": infos})
}

func (s *Server) compare(c *gin.Context) {
	opts, err := s.optionsFromForm(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	base, err := readFormFile(c, baseField)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		s.badForm(c, err)
		return
	}
	roster, err := readFormFile(c, rosterField)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		s.badForm(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout())
	defer cancel()

	report := s.svc.Compare(ctx, base, roster, opts)
	c.JSON(reportStatus(report), report)
}

// export renders a previously returned comparison report as a workbook.
func (s *Server) export(c *gin.Context) {
	var report internal.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid report: " + err.Error(), "error_kind": "invalid_report"})
		return
	}

	var buf bytes.Buffer
	if err := s.writeXLSX(report, &buf); err != nil {
		s.log.WithError(err).Error("export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "export failed: " + err.Error(), "error_kind": "internal"})
		return
	}

	name := pipeline.ExportFileName(time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) optionsFromForm(c *gin.Context) (internal.Options, error) {
	opts := s.cfg.DefaultOptions()
	if raw := strings.TrimSpace(c.PostForm("threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, internal.ErrInvalidThreshold
		}
		opts.Threshold = v
	}
	if alg := strings.TrimSpace(c.PostForm("algorithm")); alg != "" {
		opts.Algorithm = alg
	}
	opts.BaseColumn = c.PostForm("column1")
	opts.RosterColumn = c.PostForm("column2")
	return opts, opts.Validate()
}

func (s *Server) limitBody() gin.HandlerFunc {
	limit := s.cfg.MaxUploadBytes()
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if pipeline.IsInputError(err) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error(), "error_kind": pipeline.ErrorKind(err)})
}

// badForm answers requests whose multipart body could not be read.
func (s *Server) badForm(c *gin.Context, err error) {
	status, kind := http.StatusBadRequest, "bad_request"
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status, kind = http.StatusRequestEntityTooLarge, "too_large"
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error(), "error_kind": kind})
}

func reportStatus(r internal.Report) int {
	switch {
	case r.Success:
		return http.StatusOK
	case r.ErrorKind == "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func readFormFile(c *gin.Context, field string) (pipeline.FileInput, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return pipeline.FileInput{}, err
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) (pipeline.FileInput, error) {
	f, err := fh.Open()
	if err != nil {
		return pipeline.FileInput{}, err
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		return pipeline.FileInput{}, err
	}
	return pipeline.FileInput{Name: fh.Filename, Content: blob}, nil
}

// requestLogger tags each request with an id and logs it by status class.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-Id", requestID)

		c.Next()

		status := c.Writer.Status()
		entry := log.WithRequestID(requestID).
			WithField("http_method", c.Request.Method).
			WithField("http_path", c.Request.URL.Path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds())

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status >= 400:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
