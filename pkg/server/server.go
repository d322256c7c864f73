// Package server exposes the processor as a JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yurifrl/conciliador/pkg/categories"
	"github.com/yurifrl/conciliador/pkg/parser"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/reconcile"
	"github.com/yurifrl/conciliador/pkg/service"
	"github.com/yurifrl/conciliador/pkg/store"
)

// Server handles HTTP requests for imports, the ledger, categories and the
// budget.
type Server struct {
	logger    *log.Logger
	processor *service.Processor
	router    *gin.Engine
	now       func() time.Time
}

type Options struct {
	AllowOrigins []string
}

func New(logger *log.Logger, processor *service.Processor, opts Options) *Server {
	s := &Server{
		logger:    logger,
		processor: processor,
		router:    gin.New(),
		now:       time.Now,
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"http://localhost:3000"}
	}
	s.router.Use(s.withLogging())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	s.setupRoutes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": s.now().Format(time.RFC3339)})
	})

	api := s.router.Group("/api")
	{
		api.POST("/import", s.handleImport)

		api.GET("/ledger", s.handleLedger)
		api.PUT("/ledger", s.handleSaveLedger)
		api.PATCH("/ledger/category", s.handleSetCategory)

		api.GET("/categories", s.handleCategories)
		api.PUT("/categories", s.handleSaveCategories)

		api.GET("/budget", s.handleBudget)
		api.PUT("/budget/entry", s.handleSetPlanned)

		api.GET("/compare", s.handleCompare)
		api.GET("/balances", s.handleBalances)
	}
}

// --- helpers ---

func (s *Server) periodParam(c *gin.Context, name string, def period.Period) (period.Period, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	return period.Parse(v)
}

func warnings(ws []service.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Error())
	}
	return out
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnrecognizedSource),
		errors.Is(err, parser.ErrSchemaMismatch),
		errors.Is(err, parser.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, categories.ErrEmptyName),
		errors.Is(err, categories.ErrInvalidType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconcile.ErrEmptyMergeResult),
		errors.Is(err, categories.ErrEmptyRegistry),
		errors.Is(err, store.ErrImplausibleShrink):
		return http.StatusConflict
	case errors.Is(err, store.ErrCorruptLedger):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", c.Request.Method, "path", c.Request.URL.Path)
		if status < http.StatusInternalServerError {
			message = fmt.Sprintf("%s: %v", message, err)
		}
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", c.Request.Method, "path", c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"status": "error",
		"error":  message,
	})
}

func (s *Server) fail(c *gin.Context, message string, err error) {
	s.respondError(c, statusFor(err), message, err)
}

// withLogging logs request start/end and recovers panics.
func (s *Server) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.logger.Debug("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "remote", c.ClientIP())
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", c.Request.Method, "path", c.Request.URL.Path)
				s.respondError(c, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		c.Next()
		s.logger.Debug("http response", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func readUpload(c *gin.Context, field string) ([]fileUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("no %q file in request", field)
	}
	out := make([]fileUpload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, fileUpload{name: h.Filename, data: data})
	}
	return out, nil
}

type fileUpload struct {
	name string
	data []byte
}
