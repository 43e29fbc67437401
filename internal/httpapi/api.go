// Package httpapi exposes template upload and ad selection over HTTP.
//
// Routes:
//
//	POST /upload-template/   multipart template_image + template_name
//	POST /select-template/   JSON ad content
//	GET  /templates          cached templates in cache order
//	GET  /templates/:id      one cached template
//	GET  /health             liveness
//
// Failures render as {"error": message, "code": CODE} with the status from
// apperrors.StatusFor.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
	"github.com/ironsheep/ad-template-matcher/internal/matcher"
)

// Options configures the API.
type Options struct {
	// TemplateDir receives uploaded template images.
	TemplateDir string
	// IDSuffix is appended to template names to form template ids.
	IDSuffix string
	// MaxUploadBytes limits the uploaded image size.
	MaxUploadBytes int64
}

// API serves the HTTP routes.
type API struct {
	svc  *matcher.Service
	opts Options
	log  *logging.Logger
}

// New creates an API over svc.
func New(svc *matcher.Service, opts Options, log *logging.Logger) *API {
	if log == nil {
		log = logging.Discard()
	}
	return &API{svc: svc, opts: opts, log: log}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())
	r.MaxMultipartMemory = a.opts.MaxUploadBytes
	a.setupRoutes(r)
	return r
}

func (a *API) setupRoutes(r *gin.Engine) {
	r.POST("/upload-template/", a.uploadTemplateHandler)
	r.POST("/select-template/", a.selectTemplateHandler)
	r.GET("/templates", a.listTemplatesHandler)
	r.GET("/templates/:id", a.getTemplateHandler)
	r.GET("/health", a.healthHandler)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *API) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// respondError renders err with the status for its code.
func (a *API) respondError(c *gin.Context, err error) {
	e := apperrors.As(err)
	status := apperrors.StatusFor(e.Code)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	body := gin.H{"error": e.Message, "code": string(e.Code)}
	if e.TemplateID != "" {
		body["template_id"] = e.TemplateID
	}
	c.JSON(status, body)
}
